// Package backend defines what the case aggregator and the mutation forwarder need from a record store.
//
// Three implementations exist: restapi talks to the Casemate REST API, tables keeps BaaS-style tables in SQLite,
// and static serves a single read-only case from a JSON file. They differ in wire format and field names only;
// everything they return is raw and gets normalised by package fieldmap.
package backend

import (
	"context"
	"io"

	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/models"
)

var (
	// ErrNotFound is returned when a case or entity does not exist.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrReadOnly is returned by writes against a backend that cannot store anything.
	ErrReadOnly = errors.NewSentinel("backend is read-only")
	// ErrUnsupported is returned for collections or operations a backend does not implement.
	ErrUnsupported = errors.NewSentinel("not supported by backend")
	// ErrStatus is returned when a remote backend answers with a non-success HTTP status.
	ErrStatus = errors.NewSentinel("unexpected response status")
)

// Source reads raw case data.
type Source interface {
	// ListCases returns one row per case. Collections are not included.
	ListCases(ctx context.Context) ([]fieldmap.Record, error)
	// FetchCase returns the row of a single case or ErrNotFound.
	FetchCase(ctx context.Context, caseID string) (fieldmap.Record, error)
	// FetchCollection returns the rows of one collection scoped to a case.
	FetchCollection(ctx context.Context, caseID string, collection models.Collection) ([]fieldmap.Record, error)
}

// Store is a Source that also accepts mutations. Writes take canonical records built by the fieldmap.*Fields
// functions; each implementation renames them to its own field names.
type Store interface {
	Source
	// CreateCase stores a new case and returns the id the backend assigned.
	CreateCase(ctx context.Context, fields fieldmap.Record) (string, error)
	UpdateCase(ctx context.Context, caseID string, fields fieldmap.Record) error
	DeleteCase(ctx context.Context, caseID string) error
	// Create stores a new entity in a case's collection and returns the id the backend assigned.
	Create(ctx context.Context, caseID string, collection models.Collection, fields fieldmap.Record) (string, error)
	Update(ctx context.Context, collection models.Collection, id string, fields fieldmap.Record) error
	Delete(ctx context.Context, collection models.Collection, id string) error
	// UploadImage stores a party portrait and returns the URL it is served from.
	UploadImage(ctx context.Context, partyID string, filename string, contentType string, r io.Reader) (string, error)
}

// ImageSource is implemented by stores that keep party portraits themselves.
type ImageSource interface {
	PartyImage(ctx context.Context, partyID string) (data []byte, contentType string, err error)
}

// Mapper is implemented by backends whose rows need non-default fieldmap options.
type Mapper interface {
	MappingOptions() fieldmap.Options
}

// MappingOptions returns the fieldmap options for s.
func MappingOptions(s Source) fieldmap.Options {
	if m, ok := s.(Mapper); ok {
		return m.MappingOptions()
	}
	return fieldmap.Options{}
}

// ReadOnly adapts a Source to a Store whose writes fail with ErrReadOnly.
func ReadOnly(s Source) Store {
	return readOnly{Source: s}
}

type readOnly struct {
	Source
}

func (readOnly) CreateCase(context.Context, fieldmap.Record) (string, error) {
	return "", errors.Wrap(ErrReadOnly, "create case")
}

func (readOnly) UpdateCase(context.Context, string, fieldmap.Record) error {
	return errors.Wrap(ErrReadOnly, "update case")
}

func (readOnly) DeleteCase(context.Context, string) error {
	return errors.Wrap(ErrReadOnly, "delete case")
}

func (readOnly) Create(context.Context, string, models.Collection, fieldmap.Record) (string, error) {
	return "", errors.Wrap(ErrReadOnly, "create")
}

func (readOnly) Update(context.Context, models.Collection, string, fieldmap.Record) error {
	return errors.Wrap(ErrReadOnly, "update")
}

func (readOnly) Delete(context.Context, models.Collection, string) error {
	return errors.Wrap(ErrReadOnly, "delete")
}

func (readOnly) UploadImage(context.Context, string, string, string, io.Reader) (string, error) {
	return "", errors.Wrap(ErrReadOnly, "upload image")
}

// MappingOptions forwards the wrapped source's options.
func (r readOnly) MappingOptions() fieldmap.Options {
	return MappingOptions(r.Source)
}
