package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures by the collaborator that caused them.
type Kind string

const (
	KindLoad         Kind = "load"
	KindEmbedding    Kind = "embedding_service"
	KindCompletion   Kind = "completion_service"
	KindIndexStore   Kind = "index_store"
	KindInvalidInput Kind = "invalid_input"
)

// Error is a classified failure. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	// ErrLoad: corpus or summary file missing or malformed.
	ErrLoad = &Error{Kind: KindLoad}
	// ErrEmbeddingService: embedding API unreachable or returned an unparseable response.
	ErrEmbeddingService = &Error{Kind: KindEmbedding}
	// ErrCompletionService: chat API unreachable or returned an unparseable response.
	ErrCompletionService = &Error{Kind: KindCompletion}
	// ErrIndexStore: persistent vector store I/O failure.
	ErrIndexStore = &Error{Kind: KindIndexStore}
	// ErrInvalidInput: caller passed an unusable argument.
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
)

// NewError builds a classified error.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap classifies err as kind unless it is already classified.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return NewError(kind, op, err)
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// UserMessage renders err as the text shown to the person using a front end.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindEmbedding, KindCompletion:
		return "Serviciul de recomandări nu a răspuns. Încearcă din nou."
	case KindIndexStore:
		return "Indexul de cărți nu este disponibil momentan. Încearcă din nou."
	case KindInvalidInput:
		return "Scrie o cerere, te rog."
	case KindLoad:
		return "Datele despre cărți nu au putut fi încărcate."
	}
	return "A apărut o eroare neașteptată. Încearcă din nou."
}
