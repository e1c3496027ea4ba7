package ai

import (
	"fmt"
	"strings"

	"github.com/myrjola/casemate/internal/models"
)

const detectivePersona = `You are Benoit Blanc, a world-renowned private investigator.
Your persona is inspired by Benoit Blanc: brilliant, slightly theatrical, Southern-mannered, and incredibly observant.
You speak with a sophisticated but grounded drawl, using colorful metaphors to describe the complexities of a case.

Your goal is to assist the user (your fellow investigator) in solving murder mysteries.
Analyze the data provided: suspects, clues, timelines, and theories.
Point out contradictions, suggest new lines of inquiry, and challenge the user's reasoning in a helpful, inquisitive way.

Keep your responses concise but flavored with your unique personality.
Never reveal the "true" answer unless the user presents a flawless accusation.
Always refer to the case files provided in the context.`

const jsonGeneratorPersona = "You are a JSON generator."

const accusationSchema = `{
  "case_overview": { "summary": "string" },
  "victim_profile": { "name": "string", "background": "string" },
  "suspects_analysis": [ { "suspect_id": "string (must match source ID)", "name": "string", "initial_suspicion": "string", "why_not_guilty": "string (unless this is the killer)" } ],
  "key_evidence": [ { "evidence_id": "string", "description": "string", "importance": "string" } ],
  "timeline_reconstruction": [ { "time": "string", "event": "string", "implication": "string" } ],
  "motive": { "description": "string" },
  "method": { "description": "string" },
  "killer_reveal": { "suspect_id": "string", "name": "string", "reveal_line": "string" },
  "final_monologue": { "text": "string" }
}`

// Canned replies used instead of errors.
const (
	ReplyMissingKey     = "I seem to have misplaced my notebook! (API Key missing)"
	ReplyConnection     = "The connection is fuzzy. I cannot reach my conclusions right now."
	ReplyEmpty          = "I'm afraid I've lost my train of thought."
	ReplyUnknownSuspect = "I don't have that suspect in my files."
	ReplyUnknownTheory  = "I don't see that theory."
)

// QuickPrompt names one of the canned questions.
type QuickPrompt string

const (
	PromptTimeline QuickPrompt = "timeline"
	PromptSuspect  QuickPrompt = "suspect"
	PromptTheory   QuickPrompt = "theory"
)

const timelineQuestion = "Analyze the timeline for any inconsistencies, gaps, or suspicious patterns."

func suspectQuestion(p models.Party) string {
	return fmt.Sprintf("Analyze suspect %s. Examine their alibi, motive, and any statements they've made.", p.Name)
}

func theoryQuestion(t models.Theory) string {
	return fmt.Sprintf("Challenge this theory: %q. Find any flaws or contradictions.", t.Title+" - "+t.Content)
}

// caseContext flattens the case into the block the assistant reasons over. Each collection is one line with
// entries separated by " | ".
func caseContext(c *models.Case) string {
	var b strings.Builder
	b.WriteString("CURRENT CASE DATA:\n")
	fmt.Fprintf(&b, "Title: %s\n", c.Title)
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	fmt.Fprintf(&b, "Suspects: %s\n", join(c.Parties, func(p models.Party) string {
		return fmt.Sprintf("%s (%s): %s. Alibi: %s", p.Name, p.Role, p.Description, p.Alibi)
	}, " | "))
	fmt.Fprintf(&b, "Clues: %s\n", join(c.Clues, func(clue models.Clue) string {
		return fmt.Sprintf("%s: %s (Source: %s)", clue.Title, clue.Description, clue.Source)
	}, " | "))
	fmt.Fprintf(&b, "Timeline: %s\n", join(c.Timeline, func(e models.TimelineEvent) string {
		return fmt.Sprintf("%s - %s", e.Time, e.Description)
	}, " | "))
	fmt.Fprintf(&b, "Statements: %s\n", join(c.Statements, func(s models.Statement) string {
		return fmt.Sprintf("%s: %q", s.SpeakerName, s.Content)
	}, " | "))
	fmt.Fprintf(&b, "Theories: %s\n", join(c.Theories, func(t models.Theory) string {
		return fmt.Sprintf("%s: %s", t.Title, t.Content)
	}, " | "))
	return b.String()
}

// accusationContext is the case file handed to the accusation prompt. Unlike caseContext it carries ids so that
// the answer can reference suspects and evidence.
func accusationContext(c *models.Case) string {
	var b strings.Builder
	b.WriteString("CASE FILE:\n")
	fmt.Fprintf(&b, "Title: %s\n", c.Title)
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	fmt.Fprintf(&b, "Suspects: %s\n", join(c.Parties, func(p models.Party) string {
		return fmt.Sprintf("ID: %s | Name: %s | Role: %s | Desc: %s | Alibi: %s | Motive: %s",
			p.ID, p.Name, p.Role, p.Description, p.Alibi, p.Motive)
	}, "\n"))
	fmt.Fprintf(&b, "Evidence: %s\n", join(c.Clues, func(clue models.Clue) string {
		return fmt.Sprintf("ID: %s | Title: %s | Desc: %s | Significance: %s",
			clue.ID, clue.Title, clue.Description, clue.Confidence)
	}, "\n"))
	fmt.Fprintf(&b, "Timeline: %s\n", join(c.Timeline, func(e models.TimelineEvent) string {
		return fmt.Sprintf("Time: %s | Event: %s | Involves: %s",
			e.Time, e.Description, strings.Join(e.InvolvedSuspects, ", "))
	}, "\n"))
	fmt.Fprintf(&b, "Statements: %s\n", join(c.Statements, func(s models.Statement) string {
		return fmt.Sprintf("Speaker: %s | Content: %q", s.SpeakerName, s.Content)
	}, "\n"))
	return b.String()
}

func analysisPrompt(c *models.Case, question string) string {
	return fmt.Sprintf("CONTEXT: %s\n\nUSER QUESTION: %s", caseContext(c), question)
}

func accusationPrompt(c *models.Case) string {
	return fmt.Sprintf(`%s

TASK: Analyze the provided case file and determine the killer.
If the case data is incomplete or ambiguous, make the most logical deduction based on available evidence, or creatively fill in the gaps to create a satisfying narrative conclusion consistent with the genre.

OUTPUT FORMAT: You must return ONLY valid JSON matching this structure exactly:
%s

Do not include markdown formatting like `+"```json"+`. Just the raw JSON string.

CONTEXT:
%s`, detectivePersona, accusationSchema, accusationContext(c))
}

func join[T any](items []T, format func(T) string, sep string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = format(item)
	}
	return strings.Join(parts, sep)
}
