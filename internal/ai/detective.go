package ai

import (
	"context"
	"log/slog"

	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/models"
	"github.com/sashabaranov/go-openai"
)

// ErrUnknownPrompt is returned by QuickAnalysis for prompt names it does not know.
var ErrUnknownPrompt = errors.NewSentinel("unknown quick prompt")

func analysisMessages(c *models.Case, question string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: detectivePersona},
		{Role: openai.ChatMessageRoleUser, Content: analysisPrompt(c, question)},
	}
}

// Analyze answers a free-form question about the case. It never fails: a missing key, an unreachable proxy, or an
// empty answer each produce a fixed in-character reply.
func (c *Client) Analyze(ctx context.Context, activeCase *models.Case, question string) string {
	if !c.configured {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "AI API key is missing")
		return ReplyMissingKey
	}
	answer, err := c.syncCompletion(ctx, analysisMessages(activeCase, question), analysisTemperature, false)
	if errors.Is(err, errEmptyCompletion) {
		return ReplyEmpty
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "analyze case", errors.SlogError(err),
			slog.String("case_id", activeCase.ID))
		return ReplyConnection
	}
	return answer
}

func (c *Client) AnalyzeTimeline(ctx context.Context, activeCase *models.Case) string {
	return c.Analyze(ctx, activeCase, timelineQuestion)
}

func (c *Client) AnalyzeSuspect(ctx context.Context, activeCase *models.Case, partyID string) string {
	p, ok := activeCase.Party(partyID)
	if !ok {
		return ReplyUnknownSuspect
	}
	return c.Analyze(ctx, activeCase, suspectQuestion(p))
}

func (c *Client) ChallengeTheory(ctx context.Context, activeCase *models.Case, theoryID string) string {
	t, ok := activeCase.Theory(theoryID)
	if !ok {
		return ReplyUnknownTheory
	}
	return c.Analyze(ctx, activeCase, theoryQuestion(t))
}

// QuickAnalysis dispatches one of the canned prompts. targetID names the party or theory where the prompt needs one.
func (c *Client) QuickAnalysis(
	ctx context.Context,
	activeCase *models.Case,
	prompt QuickPrompt,
	targetID string,
) (string, error) {
	switch prompt {
	case PromptTimeline:
		return c.AnalyzeTimeline(ctx, activeCase), nil
	case PromptSuspect:
		return c.AnalyzeSuspect(ctx, activeCase, targetID), nil
	case PromptTheory:
		return c.ChallengeTheory(ctx, activeCase, targetID), nil
	default:
		return "", errors.Wrap(ErrUnknownPrompt, "quick analysis", slog.String("prompt", string(prompt)))
	}
}

// StreamAnalysis is Analyze delivered in fragments. Canned replies arrive as a single fragment. Only a failure
// after the first fragment, or an error from onDelta, is returned.
func (c *Client) StreamAnalysis(
	ctx context.Context,
	activeCase *models.Case,
	question string,
	onDelta func(string) error,
) error {
	if !c.configured {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "AI API key is missing")
		return onDelta(ReplyMissingKey)
	}
	delivered := false
	err := c.streamCompletion(ctx, analysisMessages(activeCase, question), analysisTemperature,
		func(delta string) error {
			delivered = true
			return onDelta(delta)
		})
	switch {
	case err == nil && !delivered:
		return onDelta(ReplyEmpty)
	case err != nil && !delivered:
		c.logger.LogAttrs(ctx, slog.LevelError, "stream analysis", errors.SlogError(err),
			slog.String("case_id", activeCase.ID))
		return onDelta(ReplyConnection)
	default:
		return err
	}
}
