// Package static serves a single read-only case from a case.json document.
//
// The document has the shape {"case": {...}, "parties": [...], "evidences": [...], "timelines": [...],
// "theories": [...], "statements": [...]}. Collections may also be objects keyed by id. The file is read on every
// call so edits show up without a restart.
package static

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/models"
)

// sections maps collections to the document keys that may hold them.
var sections = map[models.Collection][]string{ //nolint:gochecknoglobals // read-only table
	models.CollectionParties:    {"parties", "suspects"},
	models.CollectionClues:      {"evidences", "clues"},
	models.CollectionTimeline:   {"timelines", "timeline"},
	models.CollectionStatements: {"statements"},
	models.CollectionTheories:   {"theories"},
}

type Loader struct {
	fsys fs.FS
	name string
}

// New returns a loader for the document called name in fsys.
func New(fsys fs.FS, name string) *Loader {
	return &Loader{fsys: fsys, name: name}
}

// NewStore wraps the loader in a store that rejects every write with backend.ErrReadOnly.
func NewStore(fsys fs.FS, name string) backend.Store {
	return backend.ReadOnly(New(fsys, name))
}

func (l *Loader) ListCases(ctx context.Context) ([]fieldmap.Record, error) {
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	row, err := doc.caseRow()
	if err != nil {
		return nil, err
	}
	return []fieldmap.Record{row}, nil
}

func (l *Loader) FetchCase(ctx context.Context, caseID string) (fieldmap.Record, error) {
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	row, err := doc.caseRow()
	if err != nil {
		return nil, err
	}
	if row.String("id") != caseID {
		return nil, errors.Wrap(backend.ErrNotFound, "fetch case", slog.String("case_id", caseID))
	}
	return row, nil
}

func (l *Loader) FetchCollection(
	ctx context.Context,
	caseID string,
	collection models.Collection,
) ([]fieldmap.Record, error) {
	keys, ok := sections[collection]
	if !ok {
		return nil, errors.Wrap(backend.ErrUnsupported, "unknown collection",
			slog.String("collection", string(collection)))
	}
	// FetchCase guards the id so that a stale case id cannot read this document's collections.
	if _, err := l.FetchCase(ctx, caseID); err != nil {
		return nil, err
	}
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		raw, present := doc[key]
		if !present {
			continue
		}
		var rows []fieldmap.Record
		if rows, err = fieldmap.DecodeRows(raw); err != nil {
			return nil, errors.Wrap(err, "decode section", slog.String("section", key))
		}
		return rows, nil
	}
	return []fieldmap.Record{}, nil
}

type document map[string]json.RawMessage

func (l *Loader) load() (document, error) {
	data, err := fs.ReadFile(l.fsys, l.name)
	if err != nil {
		return nil, errors.Wrap(err, "read case document", slog.String("name", l.name))
	}
	var doc document
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode case document", slog.String("name", l.name))
	}
	return doc, nil
}

// caseRow returns the "case" object. A case without an id is identified by its name.
func (d document) caseRow() (fieldmap.Record, error) {
	raw, ok := d["case"]
	if !ok {
		return nil, errors.New("case document has no case section")
	}
	row, err := fieldmap.DecodeRecord(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode case section")
	}
	if row.String("id") == "" {
		row["id"] = row.String("name", "title")
	}
	return row, nil
}
