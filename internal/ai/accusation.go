package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/models"
	"github.com/sashabaranov/go-openai"
)

var (
	errMissingKey        = errors.NewSentinel("AI API key missing")
	errInvalidAccusation = errors.NewSentinel("invalid accusation structure")
)

// GenerateAccusation asks the model to name the killer. Whenever that fails the fixed MockAccusation is returned
// instead, so the caller always has a narrative to present.
func (c *Client) GenerateAccusation(ctx context.Context, activeCase *models.Case) models.Accusation {
	accusation, err := c.requestAccusation(ctx, activeCase)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "AI generation failed, falling back to mock accusation",
			errors.SlogError(err), slog.String("case_id", activeCase.ID))
		return MockAccusation()
	}
	return accusation
}

func (c *Client) requestAccusation(ctx context.Context, activeCase *models.Case) (models.Accusation, error) {
	if !c.configured {
		return models.Accusation{}, errMissingKey
	}
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: jsonGeneratorPersona},
		{Role: openai.ChatMessageRoleUser, Content: accusationPrompt(activeCase)},
	}
	content, err := c.syncCompletion(ctx, messages, accusationTemperature, true)
	if err != nil {
		return models.Accusation{}, err
	}
	return ParseAccusation(content)
}

// ParseAccusation decodes a model answer. Markdown code fences are tolerated. The answer must contain
// case_overview and killer_reveal objects and a suspects_analysis array.
func ParseAccusation(content string) (models.Accusation, error) {
	raw := []byte(stripCodeFences(content))

	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return models.Accusation{}, errors.Wrap(err, "decode accusation")
	}
	if !isJSONKind(shape["case_overview"], '{') ||
		!isJSONKind(shape["killer_reveal"], '{') ||
		!isJSONKind(shape["suspects_analysis"], '[') {
		return models.Accusation{}, errInvalidAccusation
	}

	var accusation models.Accusation
	if err := json.Unmarshal(raw, &accusation); err != nil {
		return models.Accusation{}, errors.Wrap(err, "decode accusation fields")
	}
	return accusation, nil
}

func isJSONKind(raw json.RawMessage, opening byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed[0] == opening
}

func stripCodeFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string, e.g. ```json.
	if newline := strings.IndexByte(s, '\n'); newline >= 0 {
		s = s[newline+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// MockAccusation is the narrative shown when the model is unavailable.
func MockAccusation() models.Accusation {
	var a models.Accusation
	a.CaseOverview.Summary = "A tangled web of deception where every party had a secret, but only one had a fatal " +
		"intent. The surface narrative of a simple dispute masks a cold, calculated elimination. " +
		"(Mock Data - AI Unavailable)"
	a.VictimProfile.Name = "Arthur Thorne"
	a.VictimProfile.Background = "The patriarch of the Thorne dynasty. A man who built an empire on ruthlessness, " +
		"leaving a trail of enemies and disappointed heirs in his wake."
	a.SuspectsAnalysis = []models.SuspectAnalysis{
		{
			SuspectID:        "suspect_1",
			Name:             "Eleanor Thorne",
			InitialSuspicion: "As the grieving widow, she stood to inherit the majority of the estate.",
			WhyNotGuilty: "Her devotion was genuine, and the forensic timeline places her in the garden at the " +
				"time of the incident.",
		},
		{
			SuspectID:        "suspect_2",
			Name:             "Sebastian Thorne",
			InitialSuspicion: "The prodigal son, cut off from funds and desperate to cover gambling debts.",
			WhyNotGuilty:     "He lacked the specific knowledge of the security system bypass used by the killer.",
		},
	}
	a.KeyEvidence = []models.KeyEvidence{
		{
			EvidenceID:  "clue_1",
			Description: "The Muddy Footprints",
			Importance:  "They led away from the study, but their size did not match the presumed intruder.",
		},
		{
			EvidenceID:  "clue_2",
			Description: "The Broken Pocket Watch",
			Importance: "Stopped exactly at 9:45 PM, providing a staged time of death that contradicted the " +
				"medical examiner's report.",
		},
	}
	a.TimelineReconstruction = []models.ReconstructedEvent{
		{
			Time:        "21:30",
			Event:       "The killer enters the study via the servant's passage.",
			Implication: "This suggests intimate knowledge of the house layout.",
		},
		{
			Time:        "21:45",
			Event:       "The struggle occurs. The watch is broken intentionally.",
			Implication: "A deliberate attempt to create a false alibi window.",
		},
	}
	a.Motive.Description = "Fear of exposure rather than greed. The victim was about to alter his will to cut out " +
		"the killer, not for money, but to protect the family legacy from scandal."
	a.Method.Description = "Poisoned tea identified as 'Nightshade Blend', administered prior to the blunt force " +
		"trauma to stage a robbery gone wrong."
	a.KillerReveal.SuspectID = "suspect_3"
	a.KillerReveal.Name = "Julian Thorne"
	a.KillerReveal.RevealLine = "It was always the quiet ones who listen most intently at keyholes."
	a.FinalMonologue.Text = "Justice is a machine that requires all parts to function. Tonight, we have greased its " +
		"gears with the truth. Julian thought he could outsmart the legacy, but in the end, he became just another " +
		"footnote in its dark history."
	return a
}
