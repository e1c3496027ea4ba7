package fieldmap

import "github.com/myrjola/casemate/internal/models"

// The *Fields functions produce canonical camelCase records. Backends project them onto their own field names
// with [Rename].

func CaseFields(c models.Case) Record {
	return Record{
		"title":       c.Title,
		"description": c.Description,
		"status":      string(c.Status),
		"detective":   c.Detective,
	}
}

func PartyFields(p models.Party) Record {
	return Record{
		"name":        p.Name,
		"role":        p.Role,
		"description": p.Description,
		"alibi":       p.Alibi,
		"motive":      p.Motive,
		"notes":       p.Notes,
		"imageUrl":    p.ImageURL,
	}
}

func ClueFields(c models.Clue) Record {
	return Record{
		"title":          c.Title,
		"description":    c.Description,
		"source":         c.Source,
		"confidence":     string(c.Confidence),
		"linkedSuspects": nonNil(c.LinkedSuspects),
	}
}

func TimelineEventFields(e models.TimelineEvent) Record {
	return Record{
		"title":            e.Title,
		"time":             e.Time,
		"date":             e.Date,
		"description":      e.Description,
		"involvedSuspects": nonNil(e.InvolvedSuspects),
		"isGap":            e.IsGap,
	}
}

func StatementFields(s models.Statement) Record {
	return Record{
		"speakerId":   s.SpeakerID,
		"speakerName": s.SpeakerName,
		"content":     s.Content,
		"timestamp":   s.Timestamp,
		"context":     s.Context,
	}
}

func TheoryFields(t models.Theory) Record {
	return Record{
		"title":          t.Title,
		"content":        t.Content,
		"linkedSuspects": nonNil(t.LinkedSuspects),
		"linkedClues":    nonNil(t.LinkedClues),
		"createdAt":      t.CreatedAt,
	}
}

// Rename projects canonical fields onto backend names. Fields without an entry in columns are dropped, which is
// how a backend ignores data it cannot store.
func Rename(fields Record, columns map[string]string) Record {
	out := make(Record, len(columns))
	for canonical, backendName := range columns {
		if v, ok := fields[canonical]; ok {
			out[backendName] = v
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
