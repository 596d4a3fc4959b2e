package suggest

// Key identifies a suggestion request. The service echoes it back in the
// response.
type Key struct {
	ID   int64 `json:"id"`
	From int   `json:"from"`
	To   int   `json:"to"`
}

// Request asks for suggestions on Text, the document content of
// [Key.From, Key.To). Block boundaries appear as newlines.
type Request struct {
	Key  Key    `json:"key"`
	Text string `json:"text"`
}

// Suggestion names a misspelt phrase and its replacements.
type Suggestion struct {
	Phrase     string   `json:"phrase"`
	Candidates []string `json:"candidates"`
}

// Response carries the suggestions for the range of Key.
type Response struct {
	Key         Key          `json:"key"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Sender delivers requests to the suggestion service. Send must not block.
type Sender interface {
	Send(req Request) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(req Request) error

func (f SenderFunc) Send(req Request) error { return f(req) }
