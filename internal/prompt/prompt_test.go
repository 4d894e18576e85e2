package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pdfchat/internal/model"
)

const refusalSentence = "'Sorry, I can only assist with information from the PDFs provided.'"

func TestBuildFixedOrdering(t *testing.T) {
	a := NewAssembler(HistoryPolicy{MaxMessages: 10})
	history := []model.Message{
		{Role: model.RoleUser, Content: "earlier question"},
		{Role: model.RoleAssistant, Content: "earlier answer"},
	}

	out := a.Build("chunk one\n\nchunk two", history, "what now?")

	require.Contains(t, out, refusalSentence)
	require.Contains(t, out, "Document Context:\nchunk one\n\nchunk two")
	require.Contains(t, out, "User: earlier question")
	require.Contains(t, out, "Assistant: earlier answer")
	require.True(t, strings.HasSuffix(out, "User: what now?\n\nAssistant:"))

	instructionPos := strings.Index(out, "You are an AI assistant")
	contextPos := strings.Index(out, "Document Context:")
	historyPos := strings.Index(out, "Previous conversation:")
	userPos := strings.LastIndex(out, "User: what now?")
	require.True(t, instructionPos < contextPos && contextPos < historyPos && historyPos < userPos)
}

func TestBuildOmitsEmptyContext(t *testing.T) {
	a := NewAssembler(HistoryPolicy{MaxMessages: 10})
	out := a.Build("", nil, "hello")
	require.NotContains(t, out, "Document Context:")
	require.NotContains(t, out, "Previous conversation:")
	require.Contains(t, out, refusalSentence)
}

func TestBuildCapsHistoryWindow(t *testing.T) {
	a := NewAssembler(HistoryPolicy{MaxMessages: 10})
	var history []model.Message
	for i := 0; i < 15; i++ {
		history = append(history, model.Message{Role: model.RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}

	out := a.Build("", history, "latest")
	require.NotContains(t, out, "msg-4")
	require.Contains(t, out, "msg-5")
	require.Contains(t, out, "msg-14")
}

func TestHistoryPolicyWindow(t *testing.T) {
	p := HistoryPolicy{MaxMessages: 2}
	history := []model.Message{
		{Content: "a"}, {Content: "b"}, {Content: "c"},
	}
	window := p.Window(history)
	require.Len(t, window, 2)
	require.Equal(t, "b", window[0].Content)

	unbounded := HistoryPolicy{}
	require.Len(t, unbounded.Window(history), 3)
}
