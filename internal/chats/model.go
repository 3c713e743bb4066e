package chats

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	// MaxHistory caps both the history endpoint and the stored transcript.
	MaxHistory = 50
	// PromptHistory is how many recent turns are sent to the model.
	PromptHistory = 24
	// MaxParsedTextPrompt bounds the attachment text added to the prompt.
	MaxParsedTextPrompt = 6000
)

// Turn is one persisted chat message of a resume.
type Turn struct {
	ID        string    `json:"id"`
	ResumeID  string    `json:"-"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Exchange is the result of one send.
type Exchange struct {
	User      Turn `json:"userMessage"`
	Assistant Turn `json:"assistantMessage"`
}
