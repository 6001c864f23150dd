package enhance

// Format identifies the syntax of the draft being enhanced.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Message is one recent conversation turn included for context.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// WorkspaceContext describes the environment the draft was written in.
type WorkspaceContext struct {
	Model           string    `json:"model"`
	ReasoningEffort string    `json:"reasoning_effort,omitempty"`
	Cwd             string    `json:"cwd"`
	RecentMessages  []Message `json:"recent_messages,omitempty"`
}

// Request is the payload sent to the enhancement service.
// The client only serializes it; construction belongs to the caller.
type Request struct {
	RequestID        string           `json:"request_id"`
	Format           Format           `json:"format"`
	Locale           string           `json:"locale,omitempty"`
	Draft            string           `json:"draft"`
	CursorByteOffset *int             `json:"cursor_byte_offset,omitempty"`
	WorkspaceContext WorkspaceContext `json:"workspace_context"`
}

// wireResponse is the service's response body on any status.
// Both fields are optional; precedence is handled in classify.
type wireResponse struct {
	EnhancedPrompt *string    `json:"enhanced_prompt"`
	Error          *wireError `json:"error"`
}

type wireError struct {
	Code    *string `json:"code"`
	Message *string `json:"message"`
}
