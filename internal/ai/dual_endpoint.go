package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DualEndpointClient implements ModelClient against an agent service with
// separate non-streaming and streaming endpoints behind one bearer credential.
type DualEndpointClient struct {
	apiKey     string
	invokeURL  string
	streamURL  string
	httpClient *http.Client
}

func NewDualEndpointClient(apiKey, invokeURL, streamURL string) (*DualEndpointClient, error) {
	if strings.TrimSpace(apiKey) == "" ||
		strings.TrimSpace(invokeURL) == "" ||
		strings.TrimSpace(streamURL) == "" {
		return nil, ErrMissingCredentials
	}
	return &DualEndpointClient{
		apiKey:     apiKey,
		invokeURL:  invokeURL,
		streamURL:  streamURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}, nil
}

func (c *DualEndpointClient) Invoke(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"prompt": prompt,
		"stream": false,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal agent request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.invokeURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build agent request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read agent response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("agent response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse agent json failed: %w", err)
	}
	if parsed.Content == "" {
		return "", fmt.Errorf("empty agent response")
	}
	return parsed.Content, nil
}

func (c *DualEndpointClient) Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) (string, error) {
	reqBody := map[string]interface{}{
		"prompt": prompt,
		"stream": true,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal agent stream request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.streamURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build agent stream request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("agent stream status %d: %s", resp.StatusCode, string(raw))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var full strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if chunk.Content == "" {
			continue
		}

		full.WriteString(chunk.Content)
		if err := onChunk(chunk.Content); err != nil {
			return "", err
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan agent stream failed: %w", err)
	}
	return full.String(), nil
}
