package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"librarian/internal/domain"
	"librarian/internal/selector"
	"librarian/internal/summaries"
)

// SummaryInput is the input schema for get_summary_by_title.
type SummaryInput struct {
	Title string `json:"title" jsonschema:"exact book title"`
}

// SummaryOutput is the output schema for get_summary_by_title.
type SummaryOutput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Found   bool   `json:"found"`
}

// RecommendInput is the input schema for recommend_book.
type RecommendInput struct {
	Query string `json:"query" jsonschema:"what the reader is looking for"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        selector.ToolName,
		Description: selector.SummaryTool.Description,
	}, s.handleSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recommend_book",
		Description: "Recomandă o carte din colecție pentru cererea cititorului și întoarce rezumatul complet.",
	}, s.handleRecommend)
}

func (s *Server) handleSummary(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SummaryInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	text, found := s.librarian.Summary(input.Title)
	if !found {
		text = summaries.NotFound
	}
	return nil, SummaryOutput{Title: input.Title, Summary: text, Found: found}, nil
}

func (s *Server) handleRecommend(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecommendInput,
) (*mcp.CallToolResult, domain.Recommendation, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.Recommendation{}, errors.New("query is required")
	}
	rec, err := s.librarian.Recommend(ctx, input.Query)
	if err != nil {
		s.logger.Warn("recommend_book failed", zap.Error(err))
		return nil, domain.Recommendation{}, errors.New(domain.UserMessage(err))
	}
	return nil, rec, nil
}
