package model

// Role tags a message as coming from the caller or from the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn half. Messages carry no timestamp of
// their own; history rendering uses the session creation time.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
