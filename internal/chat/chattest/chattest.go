// Package chattest provides a scripted chat.Model for tests and offline runs.
package chattest

import (
	"context"
	"sync"

	"librarian/internal/chat"
)

var _ chat.Model = (*Model)(nil)

// Model replays queued responses in order and records every request.
// When the queue is empty it falls back to Respond, or to an empty response.
type Model struct {
	mu        sync.Mutex
	responses []chat.Response
	errs      []error
	requests  []chat.Request

	// Respond, when set, answers requests once the queue is drained.
	Respond func(chat.Request) (chat.Response, error)
}

func New(responses ...chat.Response) *Model {
	return &Model{responses: responses, errs: make([]error, len(responses))}
}

// Fail queues an error response.
func (m *Model) Fail(err error) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, chat.Response{})
	m.errs = append(m.errs, err)
	return m
}

func (m *Model) ModelName() string { return "scripted" }

func (m *Model) Complete(ctx context.Context, req chat.Request) (chat.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.responses) > 0 {
		resp, err := m.responses[0], m.errs[0]
		m.responses, m.errs = m.responses[1:], m.errs[1:]
		m.mu.Unlock()
		return resp, err
	}
	respond := m.Respond
	m.mu.Unlock()
	if respond != nil {
		return respond(req)
	}
	return chat.Response{}, nil
}

// Requests returns a copy of the recorded requests.
func (m *Model) Requests() []chat.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.Request, len(m.requests))
	copy(out, m.requests)
	return out
}
