// Package investigation assembles case aggregates from a backend and forwards edits to it.
package investigation

import (
	"context"
	"log/slog"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/models"
	"golang.org/x/sync/errgroup"
)

// listConcurrency bounds how many cases ListCases loads at once.
const listConcurrency = 4

// Aggregator loads whole cases. It keeps no state between calls.
type Aggregator struct {
	source backend.Source
	opts   fieldmap.Options
	logger *slog.Logger
}

func NewAggregator(source backend.Source, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		opts:   backend.MappingOptions(source),
		logger: logger.With(slog.String("source", "aggregator")),
	}
}

// LoadCase fetches the case row and its five collections concurrently and assembles the aggregate.
//
// It is all-or-nothing: the first failing fetch cancels the others and LoadCase returns a nil case.
func (a *Aggregator) LoadCase(ctx context.Context, caseID string) (*models.Case, error) {
	var (
		caseRow    fieldmap.Record
		collection = make(map[models.Collection][]fieldmap.Record, len(models.Collections))
		results    = make([][]fieldmap.Record, len(models.Collections))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		caseRow, err = a.source.FetchCase(gctx, caseID)
		return err
	})
	for i, c := range models.Collections {
		g.Go(func() error {
			rows, err := a.source.FetchCollection(gctx, caseID, c)
			if err != nil {
				return errors.Wrap(err, "fetch collection", slog.String("collection", string(c)))
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "load case", slog.String("case_id", caseID))
	}
	for i, c := range models.Collections {
		collection[c] = results[i]
	}

	aggregate := fieldmap.Case(caseRow)
	if aggregate.ID == "" {
		aggregate.ID = caseID
	}
	for _, row := range collection[models.CollectionParties] {
		aggregate.Parties = append(aggregate.Parties, fieldmap.Party(row, a.opts))
	}
	for _, row := range collection[models.CollectionClues] {
		aggregate.Clues = append(aggregate.Clues, fieldmap.Clue(row))
	}
	for _, row := range collection[models.CollectionTimeline] {
		aggregate.Timeline = append(aggregate.Timeline, fieldmap.TimelineEvent(row, a.opts))
	}
	for _, row := range collection[models.CollectionStatements] {
		s := fieldmap.Statement(row)
		if s.SpeakerName == "" && s.SpeakerID != "" {
			s.SpeakerName = aggregate.PartyName(s.SpeakerID)
		}
		aggregate.Statements = append(aggregate.Statements, s)
	}
	for _, row := range collection[models.CollectionTheories] {
		aggregate.Theories = append(aggregate.Theories, fieldmap.Theory(row))
	}

	a.logger.LogAttrs(ctx, slog.LevelDebug, "loaded case",
		slog.String("case_id", aggregate.ID),
		slog.Int("parties", len(aggregate.Parties)),
		slog.Int("clues", len(aggregate.Clues)),
		slog.Int("timeline", len(aggregate.Timeline)),
		slog.Int("statements", len(aggregate.Statements)),
		slog.Int("theories", len(aggregate.Theories)))
	return &aggregate, nil
}

// ListCases loads every case the backend lists, a few at a time. Like LoadCase it fails as a whole.
func (a *Aggregator) ListCases(ctx context.Context) ([]*models.Case, error) {
	rows, err := a.source.ListCases(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list cases")
	}
	cases := make([]*models.Case, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, row := range rows {
		caseID := fieldmap.Case(row).ID
		g.Go(func() error {
			loaded, loadErr := a.LoadCase(gctx, caseID)
			if loadErr != nil {
				return loadErr
			}
			cases[i] = loaded
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return cases, nil
}
