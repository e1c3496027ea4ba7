package static_test

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/backend/static"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/models"
	"github.com/stretchr/testify/require"
)

const caseID = "Murder at the Manor"

func TestLoader(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loader := static.New(os.DirFS("testdata"), "case.json")

	cases, err := loader.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	c := fieldmap.Case(cases[0])
	require.Equal(t, caseID, c.ID)
	require.Equal(t, "Lord Edgware was found dead in the library.", c.Description)

	_, err = loader.FetchCase(ctx, "other")
	require.ErrorIs(t, err, backend.ErrNotFound)

	parties, err := loader.FetchCollection(ctx, caseID, models.CollectionParties)
	require.NoError(t, err)
	require.Len(t, parties, 2)
	lady := fieldmap.Party(parties[0], fieldmap.Options{})
	require.Equal(t, "Lady Edgware", lady.ID)
	require.Equal(t, "/images/lady.png", lady.ImageURL)

	clues, err := loader.FetchCollection(ctx, caseID, models.CollectionClues)
	require.NoError(t, err)
	require.Len(t, clues, 2)
	watch := fieldmap.Clue(clues[0])
	require.Equal(t, "e1", watch.ID)
	require.Equal(t, "Broken Watch", watch.Title)
	require.Equal(t, "Library", watch.Source)
	require.Equal(t, models.ConfidenceQuestionable, watch.Confidence)
	require.Equal(t, []string{"Lady Edgware"}, watch.LinkedSuspects)

	timeline, err := loader.FetchCollection(ctx, caseID, models.CollectionTimeline)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	dinner := fieldmap.TimelineEvent(timeline[0], fieldmap.Options{})
	require.Equal(t, "Dinner", dinner.Title)
	require.Equal(t, "22:13:20", dinner.Time)
	require.Equal(t, "2023-11-14", dinner.Date)

	statements, err := loader.FetchCollection(ctx, caseID, models.CollectionStatements)
	require.NoError(t, err)
	require.Empty(t, statements)

	_, err = loader.FetchCollection(ctx, "other", models.CollectionTheories)
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestLoader_readsFreshOnEveryCall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fsys := fstest.MapFS{
		"case.json": {Data: []byte(`{"case": {"id": "c1", "name": "First"}}`)},
	}
	loader := static.New(fsys, "case.json")

	row, err := loader.FetchCase(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "First", fieldmap.Case(row).Title)

	fsys["case.json"] = &fstest.MapFile{Data: []byte(`{"case": {"id": "c1", "name": "Second"}}`)}
	row, err = loader.FetchCase(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "Second", fieldmap.Case(row).Title)
}

func TestLoader_errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := static.New(fstest.MapFS{}, "case.json").ListCases(ctx)
	require.Error(t, err)

	broken := fstest.MapFS{"case.json": {Data: []byte(`{"case": `)}}
	_, err = static.New(broken, "case.json").ListCases(ctx)
	require.Error(t, err)

	noCase := fstest.MapFS{"case.json": {Data: []byte(`{"parties": []}`)}}
	_, err = static.New(noCase, "case.json").ListCases(ctx)
	require.Error(t, err)
}

func TestNewStore_isReadOnly(t *testing.T) {
	t.Parallel()
	store := static.NewStore(os.DirFS("testdata"), "case.json")
	_, err := store.Create(context.Background(), caseID, models.CollectionClues, fieldmap.Record{})
	require.ErrorIs(t, err, backend.ErrReadOnly)
	require.ErrorIs(t, store.DeleteCase(context.Background(), caseID), backend.ErrReadOnly)
}
