package investigation_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/backend/tables"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/investigation"
	"github.com/myrjola/casemate/internal/models"
	"github.com/myrjola/casemate/internal/sqlite"
	"github.com/myrjola/casemate/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scenarioStore holds a case with three parties, two clues (one linking two parties), and a theory linking one
// clue and one party.
func scenarioStore() *memoryStore {
	s := newMemoryStore()
	s.addCase("case-1", "The Vanishing Heir")
	s.addRow("case-1", models.CollectionParties, fieldmap.Record{"id": "p1", "name": "Ada", "role": "Niece"})
	s.addRow("case-1", models.CollectionParties, fieldmap.Record{"id": "p2", "name": "Bram", "role": "Gardener"})
	s.addRow("case-1", models.CollectionParties, fieldmap.Record{"id": "p3", "name": "Cora", "role": "Cook"})
	s.addRow("case-1", models.CollectionClues, fieldmap.Record{
		"id": "c1", "title": "Torn Glove", "confidence": "Confirmed", "linkedSuspects": []any{"p1", "p2"},
	})
	s.addRow("case-1", models.CollectionClues, fieldmap.Record{"id": "c2", "title": "Ledger"})
	s.addRow("case-1", models.CollectionTheories, fieldmap.Record{
		"id": "th1", "title": "Gardener did it", "linkedSuspects": []any{"p2"}, "linkedClues": []any{"c1"},
	})
	s.addRow("case-1", models.CollectionStatements, fieldmap.Record{
		"id": "st1", "speakerId": "p3", "content": "I was baking.",
	})
	s.addCase("case-2", "Empty")
	return s
}

func newAggregator(source backend.Source) *investigation.Aggregator {
	return investigation.NewAggregator(source, testhelpers.NewLogger(io.Discard))
}

func TestAggregator_LoadCase(t *testing.T) {
	ctx := context.Background()
	aggregator := newAggregator(scenarioStore())

	c, err := aggregator.LoadCase(ctx, "case-1")
	require.NoError(t, err)
	require.Equal(t, "case-1", c.ID)
	require.Equal(t, "The Vanishing Heir", c.Title)
	require.Len(t, c.Parties, 3)
	require.Len(t, c.Clues, 2)
	require.Empty(t, c.Timeline)
	require.NotNil(t, c.Timeline)
	require.Len(t, c.Theories, 1)

	theory := c.Theories[0]
	suspects := c.ResolveParties(theory.LinkedSuspects)
	require.Len(t, suspects, 1)
	require.Equal(t, "Bram", suspects[0].Name)
	clues := c.ResolveClues(theory.LinkedClues)
	require.Len(t, clues, 1)
	require.Equal(t, "Torn Glove", clues[0].Title)

	glove, ok := c.Clue("c1")
	require.True(t, ok)
	linked := c.ResolveParties(glove.LinkedSuspects)
	require.Equal(t, []string{"Ada", "Bram"}, []string{linked[0].Name, linked[1].Name})

	ledger, ok := c.Clue("c2")
	require.True(t, ok)
	require.Equal(t, models.ConfidenceQuestionable, ledger.Confidence)
	require.Equal(t, []string{}, ledger.LinkedSuspects)

	require.Equal(t, "Cora", c.Statements[0].SpeakerName, "speaker name is filled from the parties")
}

func TestAggregator_LoadCase_allOrNothing(t *testing.T) {
	ctx := context.Background()
	store := scenarioStore()
	fetchErr := errors.New("clues unavailable")
	store.readErrs[models.CollectionClues] = fetchErr
	store.blocking[models.CollectionTheories] = true
	aggregator := newAggregator(store)

	c, err := aggregator.LoadCase(ctx, "case-1")
	require.ErrorIs(t, err, fetchErr)
	require.Nil(t, c)
}

func TestAggregator_LoadCase_missingCase(t *testing.T) {
	aggregator := newAggregator(scenarioStore())
	c, err := aggregator.LoadCase(context.Background(), "nope")
	require.ErrorIs(t, err, backend.ErrNotFound)
	require.Nil(t, c)
}

func TestAggregator_ListCases(t *testing.T) {
	ctx := context.Background()
	store := scenarioStore()
	aggregator := newAggregator(store)

	cases, err := aggregator.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	require.Equal(t, "case-1", cases[0].ID)
	require.Len(t, cases[0].Parties, 3)
	require.Equal(t, "case-2", cases[1].ID)
	require.Empty(t, cases[1].Parties)

	store.readErrs[models.CollectionTimeline] = errors.New("timeline unavailable")
	cases, err = aggregator.ListCases(ctx)
	require.Error(t, err)
	require.Nil(t, cases)
}

func TestAggregator_LoadCase_tablesBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logger := testhelpers.NewLogger(io.Discard)
	db, err := sqlite.NewDatabase(ctx, ":memory:", true, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		_ = db.Close()
	})
	aggregator := investigation.NewAggregator(tables.New(db, logger), logger)

	c, err := aggregator.LoadCase(ctx, "case-001")
	require.NoError(t, err)
	require.Len(t, c.Parties, 3)
	require.Len(t, c.Clues, 2)
	require.Len(t, c.Timeline, 4)
	require.Len(t, c.Statements, 1)
	require.Len(t, c.Theories, 1)
	require.Equal(t, []models.Party{c.Parties[1]}, c.ResolveParties(c.Theories[0].LinkedSuspects))
}
