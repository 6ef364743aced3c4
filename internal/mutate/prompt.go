package mutate

import "context"

type PromptKind string

const (
	PromptAdd  PromptKind = "add"
	PromptEdit PromptKind = "edit"
)

// PromptRequest asks the presentation layer for a URL for one item.
type PromptRequest struct {
	Kind     PromptKind
	ItemID   string
	ItemName string
	// Current prefills the input when editing.
	Current string
}

// PromptResponse is the user's answer. Canceled and empty answers both leave
// the item untouched.
type PromptResponse struct {
	URL      string
	Canceled bool
}

// Prompter is implemented by whatever can ask the user (TUI modal, stdin,
// a fixed flag value). PromptURL may block until the user answers or ctx ends.
type Prompter interface {
	PromptURL(ctx context.Context, req PromptRequest) (PromptResponse, error)
}

type PromptFunc func(ctx context.Context, req PromptRequest) (PromptResponse, error)

func (f PromptFunc) PromptURL(ctx context.Context, req PromptRequest) (PromptResponse, error) {
	return f(ctx, req)
}

// Fixed answers every prompt with the same URL.
func Fixed(url string) Prompter {
	return PromptFunc(func(ctx context.Context, _ PromptRequest) (PromptResponse, error) {
		if err := ctx.Err(); err != nil {
			return PromptResponse{}, err
		}
		return PromptResponse{URL: url}, nil
	})
}
