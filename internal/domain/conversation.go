package domain

// Conversation roles accepted from clients. The system preamble is owned by
// the AI client and never supplied by callers.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. Messages are not persisted.
type Message struct {
	Role    string `json:"role"    example:"user"`
	Content string `json:"content" example:"Help me write questions about remote work."`
}

// ValidRole reports whether r is a role a client may send.
func ValidRole(r string) bool { return r == RoleUser || r == RoleAssistant }

// Completion is the text produced by the AI provider together with the
// provider-reported token cost of the call.
type Completion struct {
	Text       string
	TokensUsed int64
}
