package models

// Confidence rates how trustworthy a clue is. Values other than the constants below pass through unchanged.
type Confidence string

const (
	ConfidenceConfirmed    Confidence = "Confirmed"
	ConfidenceQuestionable Confidence = "Questionable"
	ConfidenceDisputed     Confidence = "Disputed"
)

// Party is a person of interest in the case file, usually a suspect.
type Party struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Alibi       string `json:"alibi"`
	Motive      string `json:"motive"`
	Notes       string `json:"notes"`
	ImageURL    string `json:"imageUrl"`
}

// Clue is a catalogued physical or documentary item.
type Clue struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Source         string     `json:"source"`
	Confidence     Confidence `json:"confidence"`
	LinkedSuspects []string   `json:"linkedSuspects"`
}

// TimelineEvent is something that happened at a point in time. IsGap marks an unaccounted-for stretch.
type TimelineEvent struct {
	ID               string   `json:"id"`
	Title            string   `json:"title,omitempty"`
	Time             string   `json:"time"`
	Date             string   `json:"date,omitempty"`
	Description      string   `json:"description"`
	InvolvedSuspects []string `json:"involvedSuspects"`
	IsGap            bool     `json:"isGap"`
}

// Statement is something a party said. SpeakerName is a denormalised copy of the speaker's party name.
type Statement struct {
	ID          string `json:"id"`
	SpeakerID   string `json:"speakerId"`
	SpeakerName string `json:"speakerName"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	Context     string `json:"context,omitempty"`
}

// Theory is an investigator's hypothesis linking suspects and clues.
type Theory struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	LinkedSuspects []string `json:"linkedSuspects"`
	LinkedClues    []string `json:"linkedClues"`
	CreatedAt      string   `json:"createdAt,omitempty"`
}

// EntityID implementations let generic collection helpers key entities by id.

func (p Party) EntityID() string         { return p.ID }
func (c Clue) EntityID() string          { return c.ID }
func (e TimelineEvent) EntityID() string { return e.ID }
func (s Statement) EntityID() string     { return s.ID }
func (t Theory) EntityID() string        { return t.ID }
