package tui

import (
	"context"
	"errors"
	"sync"

	"scenelinks/internal/mutate"

	tea "github.com/charmbracelet/bubbletea"
)

var ErrNoDisplay = errors.New("panel is not displayed")

// mailbox holds the latest value from a host goroutine until the program
// picks it up. put never blocks, so host callbacks stay non-blocking even
// when they fire from inside Update.
type mailbox[T any] struct {
	ch chan T
}

func newMailbox[T any]() mailbox[T] {
	return mailbox[T]{ch: make(chan T, 1)}
}

func (b mailbox[T]) put(v T) {
	for {
		select {
		case b.ch <- v:
			return
		default:
		}
		// Drop the stale value; only the latest matters.
		select {
		case <-b.ch:
		default:
		}
	}
}

// wait returns a command that delivers the next value wrapped as a message,
// or nil once done is closed.
func (b mailbox[T]) wait(done <-chan struct{}, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case v := <-b.ch:
			return wrap(v)
		case <-done:
			return nil
		}
	}
}

type promptMsg struct {
	req   mutate.PromptRequest
	reply chan<- mutate.PromptResponse
}

// Prompter shows URL prompts as a modal inside the running panel.
type Prompter struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewPrompter() *Prompter { return &Prompter{} }

func (p *Prompter) attach(send func(tea.Msg)) {
	p.mu.Lock()
	p.send = send
	p.mu.Unlock()
}

// PromptURL must be called off the program's event loop; the panel runs
// commands as tea.Cmds for that reason.
func (p *Prompter) PromptURL(ctx context.Context, req mutate.PromptRequest) (mutate.PromptResponse, error) {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send == nil {
		return mutate.PromptResponse{}, ErrNoDisplay
	}
	reply := make(chan mutate.PromptResponse, 1)
	send(promptMsg{req: req, reply: reply})
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return mutate.PromptResponse{}, ctx.Err()
	}
}
