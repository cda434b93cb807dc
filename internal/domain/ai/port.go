package ai

import (
	"context"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

// SpotRequest is one document to analyze.
type SpotRequest struct {
	Document     string
	Instructions string
	Style        string
}

// Client produces analyses and follow-up answers.
type Client interface {
	SpotIssues(ctx context.Context, req SpotRequest) (analysis.Result, error)
	AnswerFollowup(ctx context.Context, req analysis.FollowupRequest) (string, error)
}
