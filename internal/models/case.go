// Package models defines the canonical investigation entities shared by every backend.
package models

// CaseStatus is the lifecycle state of a case. Values other than the constants below pass through unchanged.
type CaseStatus string

const (
	CaseStatusOpen   CaseStatus = "Open"
	CaseStatusSolved CaseStatus = "Solved"
)

// Collection names one of the entity collections owned by a [Case].
type Collection string

const (
	CollectionParties    Collection = "parties"
	CollectionClues      Collection = "clues"
	CollectionTimeline   Collection = "timeline"
	CollectionStatements Collection = "statements"
	CollectionTheories   Collection = "theories"
)

// Collections lists every collection in the order the workspace tabs show them.
var Collections = []Collection{ //nolint:gochecknoglobals // read-only table
	CollectionParties,
	CollectionClues,
	CollectionTimeline,
	CollectionStatements,
	CollectionTheories,
}

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// Case is the InvestigationCase aggregate: the case file plus every collection that belongs to it.
//
// Entities reference each other by id only. Nothing keeps those references consistent; a deleted party may
// still be linked from clues, timeline events, statements, and theories.
type Case struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      CaseStatus      `json:"status"`
	Detective   string          `json:"detective,omitempty"`
	Parties     []Party         `json:"parties"`
	Clues       []Clue          `json:"clues"`
	Timeline    []TimelineEvent `json:"timeline"`
	Statements  []Statement     `json:"statements"`
	Theories    []Theory        `json:"theories"`
}

// Party looks up a party by id.
func (c *Case) Party(id string) (Party, bool) {
	for _, p := range c.Parties {
		if p.ID == id {
			return p, true
		}
	}
	return Party{}, false
}

// PartyName resolves a party id to a display name, falling back to the raw id for dangling references.
func (c *Case) PartyName(id string) string {
	if p, ok := c.Party(id); ok {
		return p.Name
	}
	return id
}

// Clue looks up a clue by id.
func (c *Case) Clue(id string) (Clue, bool) {
	for _, clue := range c.Clues {
		if clue.ID == id {
			return clue, true
		}
	}
	return Clue{}, false
}

// Theory looks up a theory by id.
func (c *Case) Theory(id string) (Theory, bool) {
	for _, t := range c.Theories {
		if t.ID == id {
			return t, true
		}
	}
	return Theory{}, false
}

// ResolveParties returns the parties behind ids, silently skipping dangling ones.
func (c *Case) ResolveParties(ids []string) []Party {
	parties := make([]Party, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.Party(id); ok {
			parties = append(parties, p)
		}
	}
	return parties
}

// ResolveClues returns the clues behind ids, silently skipping dangling ones.
func (c *Case) ResolveClues(ids []string) []Clue {
	clues := make([]Clue, 0, len(ids))
	for _, id := range ids {
		if clue, ok := c.Clue(id); ok {
			clues = append(clues, clue)
		}
	}
	return clues
}
