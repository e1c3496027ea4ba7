package investigation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/models"
)

// Forwarder sends edits to the backend and merges the outcome into a caller-owned aggregate.
//
// Updates, deletes, and image uploads are refused with backend.ErrNotFound when the id is not part of the
// aggregate. The aggregate is only touched after the backend accepted the write. There is no rollback, deduplication, or
// conflict detection: the last writer wins.
type Forwarder struct {
	store  backend.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewForwarder(store backend.Store, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		store:  store,
		logger: logger.With(slog.String("source", "forwarder")),
		now:    time.Now,
	}
}

type entity interface {
	EntityID() string
}

// upsert replaces the item with the same id or appends it.
func upsert[T entity](items []T, item T) []T {
	for i := range items {
		if items[i].EntityID() == item.EntityID() {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func contains[T entity](items []T, id string) bool {
	for _, item := range items {
		if item.EntityID() == id {
			return true
		}
	}
	return false
}

// requireMember returns an error wrapping backend.ErrNotFound unless ok. Edits only reach entities the aggregate
// holds, so one case cannot touch another case's records.
func requireMember(ok bool, c *models.Case, collection models.Collection, id string) error {
	if ok {
		return nil
	}
	return errors.Wrap(backend.ErrNotFound, "entity not in case", slog.String("case_id", c.ID),
		slog.String("collection", string(collection)), slog.String("id", id))
}

// remove filters out every item with id.
func remove[T entity](items []T, id string) []T {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if item.EntityID() != id {
			kept = append(kept, item)
		}
	}
	return kept
}

func (f *Forwarder) create(
	ctx context.Context,
	c *models.Case,
	collection models.Collection,
	fields fieldmap.Record,
) (string, error) {
	id, err := f.store.Create(ctx, c.ID, collection, fields)
	if err != nil {
		return "", errors.Wrap(err, "add", slog.String("collection", string(collection)))
	}
	if id == "" {
		return "", errors.New("backend returned no id", slog.String("collection", string(collection)))
	}
	f.logger.LogAttrs(ctx, slog.LevelInfo, "added entity",
		slog.String("case_id", c.ID), slog.String("collection", string(collection)), slog.String("id", id))
	return id, nil
}

func (f *Forwarder) update(ctx context.Context, collection models.Collection, id string, fields fieldmap.Record) error {
	if err := f.store.Update(ctx, collection, id, fields); err != nil {
		return errors.Wrap(err, "update", slog.String("collection", string(collection)), slog.String("id", id))
	}
	return nil
}

func (f *Forwarder) delete(ctx context.Context, collection models.Collection, id string) error {
	if err := f.store.Delete(ctx, collection, id); err != nil {
		return errors.Wrap(err, "delete", slog.String("collection", string(collection)), slog.String("id", id))
	}
	return nil
}

func (f *Forwarder) AddParty(ctx context.Context, c *models.Case, p models.Party) (models.Party, error) {
	id, err := f.create(ctx, c, models.CollectionParties, fieldmap.PartyFields(p))
	if err != nil {
		return models.Party{}, err
	}
	p.ID = id
	c.Parties = upsert(c.Parties, p)
	return p, nil
}

func (f *Forwarder) UpdateParty(ctx context.Context, c *models.Case, p models.Party) error {
	if err := requireMember(contains(c.Parties, p.ID), c, models.CollectionParties, p.ID); err != nil {
		return err
	}
	if err := f.update(ctx, models.CollectionParties, p.ID, fieldmap.PartyFields(p)); err != nil {
		return err
	}
	c.Parties = upsert(c.Parties, p)
	return nil
}

// DeleteParty removes the party only. Clues, timeline events, statements, and theories keep linking its id.
func (f *Forwarder) DeleteParty(ctx context.Context, c *models.Case, id string) error {
	if err := requireMember(contains(c.Parties, id), c, models.CollectionParties, id); err != nil {
		return err
	}
	if err := f.delete(ctx, models.CollectionParties, id); err != nil {
		return err
	}
	c.Parties = remove(c.Parties, id)
	return nil
}

// AddClue catalogues a clue. Unrated clues are stored as Questionable.
func (f *Forwarder) AddClue(ctx context.Context, c *models.Case, clue models.Clue) (models.Clue, error) {
	if clue.Confidence == "" {
		clue.Confidence = models.ConfidenceQuestionable
	}
	id, err := f.create(ctx, c, models.CollectionClues, fieldmap.ClueFields(clue))
	if err != nil {
		return models.Clue{}, err
	}
	clue.ID = id
	c.Clues = upsert(c.Clues, clue)
	return clue, nil
}

func (f *Forwarder) UpdateClue(ctx context.Context, c *models.Case, clue models.Clue) error {
	if err := requireMember(contains(c.Clues, clue.ID), c, models.CollectionClues, clue.ID); err != nil {
		return err
	}
	if err := f.update(ctx, models.CollectionClues, clue.ID, fieldmap.ClueFields(clue)); err != nil {
		return err
	}
	c.Clues = upsert(c.Clues, clue)
	return nil
}

func (f *Forwarder) DeleteClue(ctx context.Context, c *models.Case, id string) error {
	if err := requireMember(contains(c.Clues, id), c, models.CollectionClues, id); err != nil {
		return err
	}
	if err := f.delete(ctx, models.CollectionClues, id); err != nil {
		return err
	}
	c.Clues = remove(c.Clues, id)
	return nil
}

func (f *Forwarder) AddTimelineEvent(
	ctx context.Context,
	c *models.Case,
	e models.TimelineEvent,
) (models.TimelineEvent, error) {
	id, err := f.create(ctx, c, models.CollectionTimeline, fieldmap.TimelineEventFields(e))
	if err != nil {
		return models.TimelineEvent{}, err
	}
	e.ID = id
	c.Timeline = upsert(c.Timeline, e)
	return e, nil
}

func (f *Forwarder) UpdateTimelineEvent(ctx context.Context, c *models.Case, e models.TimelineEvent) error {
	if err := requireMember(contains(c.Timeline, e.ID), c, models.CollectionTimeline, e.ID); err != nil {
		return err
	}
	if err := f.update(ctx, models.CollectionTimeline, e.ID, fieldmap.TimelineEventFields(e)); err != nil {
		return err
	}
	c.Timeline = upsert(c.Timeline, e)
	return nil
}

func (f *Forwarder) DeleteTimelineEvent(ctx context.Context, c *models.Case, id string) error {
	if err := requireMember(contains(c.Timeline, id), c, models.CollectionTimeline, id); err != nil {
		return err
	}
	if err := f.delete(ctx, models.CollectionTimeline, id); err != nil {
		return err
	}
	c.Timeline = remove(c.Timeline, id)
	return nil
}

// AddStatement records a statement. A missing speaker name is taken from the case's parties.
func (f *Forwarder) AddStatement(ctx context.Context, c *models.Case, s models.Statement) (models.Statement, error) {
	if s.SpeakerName == "" && s.SpeakerID != "" {
		s.SpeakerName = c.PartyName(s.SpeakerID)
	}
	id, err := f.create(ctx, c, models.CollectionStatements, fieldmap.StatementFields(s))
	if err != nil {
		return models.Statement{}, err
	}
	s.ID = id
	c.Statements = upsert(c.Statements, s)
	return s, nil
}

func (f *Forwarder) UpdateStatement(ctx context.Context, c *models.Case, s models.Statement) error {
	if err := requireMember(contains(c.Statements, s.ID), c, models.CollectionStatements, s.ID); err != nil {
		return err
	}
	if err := f.update(ctx, models.CollectionStatements, s.ID, fieldmap.StatementFields(s)); err != nil {
		return err
	}
	c.Statements = upsert(c.Statements, s)
	return nil
}

func (f *Forwarder) DeleteStatement(ctx context.Context, c *models.Case, id string) error {
	if err := requireMember(contains(c.Statements, id), c, models.CollectionStatements, id); err != nil {
		return err
	}
	if err := f.delete(ctx, models.CollectionStatements, id); err != nil {
		return err
	}
	c.Statements = remove(c.Statements, id)
	return nil
}

// AddTheory records a theory, stamping CreatedAt when the caller left it empty.
func (f *Forwarder) AddTheory(ctx context.Context, c *models.Case, t models.Theory) (models.Theory, error) {
	if t.CreatedAt == "" {
		t.CreatedAt = f.now().UTC().Format(time.RFC3339)
	}
	id, err := f.create(ctx, c, models.CollectionTheories, fieldmap.TheoryFields(t))
	if err != nil {
		return models.Theory{}, err
	}
	t.ID = id
	c.Theories = upsert(c.Theories, t)
	return t, nil
}

func (f *Forwarder) UpdateTheory(ctx context.Context, c *models.Case, t models.Theory) error {
	if err := requireMember(contains(c.Theories, t.ID), c, models.CollectionTheories, t.ID); err != nil {
		return err
	}
	if err := f.update(ctx, models.CollectionTheories, t.ID, fieldmap.TheoryFields(t)); err != nil {
		return err
	}
	c.Theories = upsert(c.Theories, t)
	return nil
}

func (f *Forwarder) DeleteTheory(ctx context.Context, c *models.Case, id string) error {
	if err := requireMember(contains(c.Theories, id), c, models.CollectionTheories, id); err != nil {
		return err
	}
	if err := f.delete(ctx, models.CollectionTheories, id); err != nil {
		return err
	}
	c.Theories = remove(c.Theories, id)
	return nil
}

// UploadPartyImage stores a portrait and points the party at it. The URL carries a ?t=<unix ms> cache buster so
// that browsers fetch the new image even when the backend reuses the path.
func (f *Forwarder) UploadPartyImage(
	ctx context.Context,
	c *models.Case,
	partyID string,
	filename string,
	contentType string,
	r io.Reader,
) (string, error) {
	p, ok := c.Party(partyID)
	if err := requireMember(ok, c, models.CollectionParties, partyID); err != nil {
		return "", err
	}
	imageURL, err := f.store.UploadImage(ctx, partyID, filename, contentType, r)
	if err != nil {
		return "", errors.Wrap(err, "upload party image", slog.String("party_id", partyID))
	}
	separator := "?"
	if strings.Contains(imageURL, "?") {
		separator = "&"
	}
	imageURL = fmt.Sprintf("%s%st=%d", imageURL, separator, f.now().UnixMilli())
	p.ImageURL = imageURL
	c.Parties = upsert(c.Parties, p)
	return imageURL, nil
}

// CreateCase stores a new case and returns it as an empty aggregate.
func (f *Forwarder) CreateCase(ctx context.Context, c models.Case) (*models.Case, error) {
	if c.Status == "" {
		c.Status = models.CaseStatusOpen
	}
	id, err := f.store.CreateCase(ctx, fieldmap.CaseFields(c))
	if err != nil {
		return nil, errors.Wrap(err, "create case")
	}
	if id == "" {
		return nil, errors.New("backend returned no case id")
	}
	created := models.Case{
		ID:          id,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		Detective:   c.Detective,
		Parties:     []models.Party{},
		Clues:       []models.Clue{},
		Timeline:    []models.TimelineEvent{},
		Statements:  []models.Statement{},
		Theories:    []models.Theory{},
	}
	f.logger.LogAttrs(ctx, slog.LevelInfo, "created case", slog.String("case_id", id))
	return &created, nil
}

// UpdateCase sends the case file fields. The collections are not touched.
func (f *Forwarder) UpdateCase(ctx context.Context, c *models.Case) error {
	if err := f.store.UpdateCase(ctx, c.ID, fieldmap.CaseFields(*c)); err != nil {
		return errors.Wrap(err, "update case", slog.String("case_id", c.ID))
	}
	return nil
}

func (f *Forwarder) DeleteCase(ctx context.Context, caseID string) error {
	if err := f.store.DeleteCase(ctx, caseID); err != nil {
		return errors.Wrap(err, "delete case", slog.String("case_id", caseID))
	}
	f.logger.LogAttrs(ctx, slog.LevelInfo, "deleted case", slog.String("case_id", caseID))
	return nil
}
