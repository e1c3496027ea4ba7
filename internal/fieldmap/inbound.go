package fieldmap

import (
	"strings"
	"time"

	"github.com/myrjola/casemate/internal/models"
)

// Options tune the inbound mapping for one backend.
type Options struct {
	// AssetBaseURL is prepended to relative "/api/..." image paths served by the backend itself.
	AssetBaseURL string
	// NameIsTimeLabel marks backends that keep the free-text time of a timeline event in "name".
	NameIsTimeLabel bool
}

// Case maps a case row. The collections are initialised empty; the aggregator fills them.
func Case(r Record) models.Case {
	status := models.CaseStatus(r.String("status"))
	if status == "" {
		status = models.CaseStatusOpen
	}
	return models.Case{
		ID:          r.String("id", "case_id", "caseid"),
		Title:       r.String("title", "name"),
		Description: r.String("description", "short_description", "shortDescription"),
		Status:      status,
		Detective:   r.String("detective"),
		Parties:     []models.Party{},
		Clues:       []models.Clue{},
		Timeline:    []models.TimelineEvent{},
		Statements:  []models.Statement{},
		Theories:    []models.Theory{},
	}
}

// Party maps a party row. Rows without an id are keyed by name.
func Party(r Record, opts Options) models.Party {
	p := models.Party{
		ID:          r.String("id", "party_id", "partyid"),
		Name:        r.String("name"),
		Role:        r.String("role"),
		Description: r.String("description"),
		Alibi:       r.String("alibi"),
		Motive:      r.String("motive"),
		Notes:       r.String("notes"),
		ImageURL:    r.String("imageUrl", "image_url", "image"),
	}
	if p.ID == "" {
		p.ID = p.Name
	}
	if opts.AssetBaseURL != "" && strings.HasPrefix(p.ImageURL, "/api") {
		p.ImageURL = strings.TrimSuffix(opts.AssetBaseURL, "/") + p.ImageURL
	}
	return p
}

// Clue maps a clue (evidence) row. A missing confidence reads as Questionable.
func Clue(r Record) models.Clue {
	confidence := models.Confidence(r.String("confidence", "status"))
	if confidence == "" {
		confidence = models.ConfidenceQuestionable
	}
	return models.Clue{
		ID:             r.String("id"),
		Title:          r.String("title", "name"),
		Description:    r.String("description"),
		Source:         r.String("source", "place"),
		Confidence:     confidence,
		LinkedSuspects: r.Strings("linkedSuspects", "linked_suspects", "suspects"),
	}
}

// TimelineEvent maps a timeline row.
//
// The clock time comes from "time", else from the "timestamp" instant. Backends with [Options.NameIsTimeLabel] keep
// the free-text time label in "name" instead, which then takes precedence over the instant. The date comes from
// "date", else from the "timestamp" instant.
func TimelineEvent(r Record, opts Options) models.TimelineEvent {
	e := models.TimelineEvent{
		ID:               r.String("id"),
		Title:            r.String("title"),
		Time:             r.String("time"),
		Date:             r.String("date"),
		Description:      r.String("description"),
		InvolvedSuspects: r.Strings("involvedSuspects", "involved_suspects"),
		IsGap:            r.Bool("isGap", "is_gap"),
	}
	if opts.NameIsTimeLabel {
		if e.Time == "" {
			e.Time = r.String("name")
		}
	} else if e.Title == "" {
		e.Title = r.String("name")
	}
	at, hasInstant := r.Time("timestamp")
	if e.Time == "" && hasInstant {
		e.Time = at.Format(time.TimeOnly)
	}
	if e.Date == "" && hasInstant {
		e.Date = at.Format(time.DateOnly)
	}
	return e
}

// Statement maps a statement row. Numeric timestamps are rendered as RFC 3339.
func Statement(r Record) models.Statement {
	timestamp := r.String("timestamp", "created_at", "createdAt")
	if at, ok := r.Time("timestamp", "created_at", "createdAt"); ok && isNumeric(timestamp) {
		timestamp = at.Format(time.RFC3339)
	}
	return models.Statement{
		ID:          r.String("id"),
		SpeakerID:   r.String("speakerId", "speaker_id"),
		SpeakerName: r.String("speakerName", "speaker_name"),
		Content:     r.String("content"),
		Timestamp:   timestamp,
		Context:     r.String("context"),
	}
}

// Theory maps a theory row.
func Theory(r Record) models.Theory {
	return models.Theory{
		ID:             r.String("id"),
		Title:          r.String("title", "name"),
		Content:        r.String("content"),
		LinkedSuspects: r.Strings("linkedSuspects", "linked_suspects"),
		LinkedClues:    r.Strings("linkedClues", "linked_clues"),
		CreatedAt:      r.String("createdAt", "created_at"),
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' && c != '-' {
			return false
		}
	}
	return true
}
