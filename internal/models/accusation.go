package models

// Accusation is the structured closing narrative naming the culprit. The JSON field names are the fixed schema the
// language model is asked to produce.
type Accusation struct {
	CaseOverview struct {
		Summary string `json:"summary"`
	} `json:"case_overview"`
	VictimProfile struct {
		Name       string `json:"name"`
		Background string `json:"background"`
	} `json:"victim_profile"`
	SuspectsAnalysis       []SuspectAnalysis    `json:"suspects_analysis"`
	KeyEvidence            []KeyEvidence        `json:"key_evidence"`
	TimelineReconstruction []ReconstructedEvent `json:"timeline_reconstruction"`
	Motive                 struct {
		Description string `json:"description"`
	} `json:"motive"`
	Method struct {
		Description string `json:"description"`
	} `json:"method"`
	KillerReveal struct {
		SuspectID  string `json:"suspect_id"`
		Name       string `json:"name"`
		RevealLine string `json:"reveal_line"`
	} `json:"killer_reveal"`
	FinalMonologue struct {
		Text string `json:"text"`
	} `json:"final_monologue"`
}

type SuspectAnalysis struct {
	SuspectID        string `json:"suspect_id"`
	Name             string `json:"name"`
	InitialSuspicion string `json:"initial_suspicion"`
	WhyNotGuilty     string `json:"why_not_guilty"`
}

type KeyEvidence struct {
	EvidenceID  string `json:"evidence_id"`
	Description string `json:"description"`
	Importance  string `json:"importance"`
}

type ReconstructedEvent struct {
	Time        string `json:"time"`
	Event       string `json:"event"`
	Implication string `json:"implication"`
}
