// Package selector asks a chat model to pick one book from retrieved candidates and
// resolves its answer to a title deterministically.
package selector

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"librarian/internal/chat"
	"librarian/internal/domain"
)

// ToolName is the capability offered to the model.
const ToolName = "get_summary_by_title"

// DefaultTemperature is used when New receives a negative temperature.
const DefaultTemperature = 0.4

// SystemPrompt describes the assistant's role and policy.
const SystemPrompt = "Ești Smart Librarian, un asistent care recomandă cărți bazat pe căutare semantică (RAG). " +
	"Ține cont de interesele utilizatorului și sugerează cea mai potrivită carte dintre rezultate. " +
	"Dacă utilizatorul cere explicit o carte (ex: 'Ce este 1984?'), alege acel titlu."

const instruction = "Alege cel mai potrivit titlu și răspunde conversațional."

// SummaryTool is the declared capability: fetch the full summary for an exact title.
var SummaryTool = chat.Tool{
	Name:        ToolName,
	Description: "Returnează rezumatul complet pentru titlul de carte.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Titlul exact al cărții"},
		},
		"required": []string{"title"},
	},
}

// Selector chooses a title among candidates.
type Selector struct {
	model       chat.Model
	temperature float64
	logger      *zap.Logger
}

func New(model chat.Model, temperature float64, logger *zap.Logger) *Selector {
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{model: model, temperature: temperature, logger: logger}
}

// Choose invokes the model once. Completion failures are returned unchanged.
// With no candidates the chosen title is empty.
func (s *Selector) Choose(ctx context.Context, query string, candidates []domain.Candidate) (domain.SelectionResult, error) {
	resp, err := s.model.Complete(ctx, chat.Request{
		Messages:    Messages(query, candidates),
		Tools:       []chat.Tool{SummaryTool},
		Temperature: s.temperature,
	})
	if err != nil {
		return domain.SelectionResult{}, domain.Wrap(domain.KindCompletion, "selector.Choose", err)
	}

	title, source := Resolve(resp, candidates)
	s.logger.Debug("title resolved",
		zap.String("title", title),
		zap.String("source", source),
		zap.Int("tool_calls", len(resp.ToolCalls)))
	return domain.SelectionResult{AssistantText: resp.Content, ChosenTitle: title}, nil
}

// Messages builds the conversation sent to the model.
func Messages(query string, candidates []domain.Candidate) []chat.Message {
	blocks := make([]string, len(candidates))
	for i, c := range candidates {
		blocks[i] = "- Title: " + c.Title + "\nSummary: " + c.Summary
	}
	return []chat.Message{
		{Role: chat.RoleSystem, Content: SystemPrompt},
		{Role: chat.RoleUser, Content: query},
		{Role: chat.RoleSystem, Content: "CANDIDAȚI:\n" + strings.Join(blocks, "\n\n")},
		{Role: chat.RoleSystem, Content: instruction},
	}
}

// Resolution sources reported by Resolve.
const (
	SourceToolCall   = "tool_call"
	SourceText       = "text"
	SourceFallback   = "first_candidate"
	SourceUnresolved = "none"
)

// Resolve picks the title in priority order: tool-call argument, first candidate title
// found in the assistant text, first candidate. The tool-call title is returned as given
// even when it names no candidate.
func Resolve(resp chat.Response, candidates []domain.Candidate) (string, string) {
	if title := titleFromToolCalls(resp.ToolCalls); title != "" {
		return title, SourceToolCall
	}
	if resp.Content != "" {
		if title, ok := MentionedTitle(resp.Content, candidates); ok {
			return title, SourceText
		}
	}
	if len(candidates) > 0 {
		return candidates[0].Title, SourceFallback
	}
	return "", SourceUnresolved
}

// MentionedTitle returns the first candidate, in input order, whose title occurs in text.
func MentionedTitle(text string, candidates []domain.Candidate) (string, bool) {
	for _, c := range candidates {
		if c.Title != "" && strings.Contains(text, c.Title) {
			return c.Title, true
		}
	}
	return "", false
}

// titleFromToolCalls returns the first non-empty title argument of a summary tool call.
// Malformed arguments are skipped.
func titleFromToolCalls(calls []chat.ToolCall) string {
	for _, tc := range calls {
		if tc.Name != ToolName {
			continue
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			continue
		}
		if title, ok := args["title"].(string); ok && strings.TrimSpace(title) != "" {
			return title
		}
	}
	return ""
}
