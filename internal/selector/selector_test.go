package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/chat"
	"librarian/internal/chat/chattest"
	"librarian/internal/domain"
)

func candidates() []domain.Candidate {
	return []domain.Candidate{
		{Title: "Hobbitul", Summary: "aventură cu pitici"},
		{Title: "1984", Summary: "stat totalitar"},
		{Title: "Dune", Summary: "planetă deșertică"},
	}
}

func toolCall(args string) chat.ToolCall {
	return chat.ToolCall{ID: "call_1", Name: ToolName, Arguments: args}
}

func TestChoose_BuildsMessagesAndTool(t *testing.T) {
	model := chattest.New(chat.Response{Content: "Îți recomand Dune."})
	s := New(model, 0.4, nil)

	res, err := s.Choose(context.Background(), "vreau ceva SF", candidates())
	require.NoError(t, err)
	assert.Equal(t, "Dune", res.ChosenTitle)
	assert.Equal(t, "Îți recomand Dune.", res.AssistantText)

	reqs := model.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.InDelta(t, 0.4, req.Temperature, 1e-9)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, ToolName, req.Tools[0].Name)

	require.Len(t, req.Messages, 4)
	assert.Equal(t, chat.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, SystemPrompt, req.Messages[0].Content)
	assert.Equal(t, chat.Message{Role: chat.RoleUser, Content: "vreau ceva SF"}, req.Messages[1])
	assert.Equal(t, "CANDIDAȚI:\n- Title: Hobbitul\nSummary: aventură cu pitici\n\n- Title: 1984\nSummary: stat totalitar\n\n- Title: Dune\nSummary: planetă deșertică",
		req.Messages[2].Content)
	assert.Equal(t, "Alege cel mai potrivit titlu și răspunde conversațional.", req.Messages[3].Content)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		resp       chat.Response
		candidates []domain.Candidate
		want       string
		source     string
	}{
		{
			name:       "tool call wins over text",
			resp:       chat.Response{Content: "Hobbitul e minunat", ToolCalls: []chat.ToolCall{toolCall(`{"title":"1984"}`)}},
			candidates: candidates(),
			want:       "1984",
			source:     SourceToolCall,
		},
		{
			name:       "tool title outside candidates is kept",
			resp:       chat.Response{ToolCalls: []chat.ToolCall{toolCall(`{"title":"Anna Karenina"}`)}},
			candidates: candidates(),
			want:       "Anna Karenina",
			source:     SourceToolCall,
		},
		{
			name:       "malformed arguments fall through to text",
			resp:       chat.Response{Content: "Încearcă Dune.", ToolCalls: []chat.ToolCall{toolCall(`{"title":`)}},
			candidates: candidates(),
			want:       "Dune",
			source:     SourceText,
		},
		{
			name:       "empty title falls through",
			resp:       chat.Response{ToolCalls: []chat.ToolCall{toolCall(`{"title":"  "}`)}},
			candidates: candidates(),
			want:       "Hobbitul",
			source:     SourceFallback,
		},
		{
			name:       "other tools are ignored",
			resp:       chat.Response{ToolCalls: []chat.ToolCall{{Name: "web_search", Arguments: `{"title":"Dune"}`}}},
			candidates: candidates(),
			want:       "Hobbitul",
			source:     SourceFallback,
		},
		{
			name:       "first mentioned in input order",
			resp:       chat.Response{Content: "Dune sau 1984, ambele sunt bune."},
			candidates: candidates(),
			want:       "1984",
			source:     SourceText,
		},
		{
			name:       "no mention falls back to first candidate",
			resp:       chat.Response{Content: "Îți recomand ceva clasic."},
			candidates: candidates(),
			want:       "Hobbitul",
			source:     SourceFallback,
		},
		{
			name:   "no candidates",
			resp:   chat.Response{Content: "Nimic."},
			want:   "",
			source: SourceUnresolved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := Resolve(tt.resp, tt.candidates)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestChoose_CompletionFailure(t *testing.T) {
	model := chattest.New().Fail(errors.New("connection reset"))
	s := New(model, -1, nil)

	_, err := s.Choose(context.Background(), "ceva", candidates())
	assert.ErrorIs(t, err, domain.ErrCompletionService)
	assert.InDelta(t, DefaultTemperature, model.Requests()[0].Temperature, 1e-9)
}

func TestChoose_NoCandidates(t *testing.T) {
	s := New(chattest.New(chat.Response{Content: "Nu știu."}), 0.4, nil)

	res, err := s.Choose(context.Background(), "ceva", nil)
	require.NoError(t, err)
	assert.Empty(t, res.ChosenTitle)
	assert.Equal(t, "Nu știu.", res.AssistantText)
}
