package investigation_test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/models"
)

// memoryStore is a backend.Store keeping canonical records in memory.
type memoryStore struct {
	mu     sync.Mutex
	cases  []fieldmap.Record
	rows   map[models.Collection][]fieldmap.Record
	nextID int

	// readErrs makes FetchCollection fail for a collection.
	readErrs map[models.Collection]error
	// blocking makes FetchCollection wait for cancellation.
	blocking map[models.Collection]bool
	// writeErr makes every write fail.
	writeErr error
	// assignID overrides the id handed out by Create.
	assignID string
	calls    []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rows:     map[models.Collection][]fieldmap.Record{},
		readErrs: map[models.Collection]error{},
		blocking: map[models.Collection]bool{},
	}
}

func (s *memoryStore) addCase(id, title string) {
	s.cases = append(s.cases, fieldmap.Record{"id": id, "title": title})
}

func (s *memoryStore) addRow(caseID string, collection models.Collection, row fieldmap.Record) {
	row["case_id"] = caseID
	s.rows[collection] = append(s.rows[collection], row)
}

func (s *memoryStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *memoryStore) ListCases(context.Context) ([]fieldmap.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fieldmap.Record{}, s.cases...), nil
}

func (s *memoryStore) FetchCase(_ context.Context, caseID string) (fieldmap.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.String("id") == caseID {
			return c, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (s *memoryStore) FetchCollection(
	ctx context.Context,
	caseID string,
	collection models.Collection,
) ([]fieldmap.Record, error) {
	s.mu.Lock()
	blocking, readErr := s.blocking[collection], s.readErrs[collection]
	s.mu.Unlock()
	if blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if readErr != nil {
		return nil, readErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []fieldmap.Record{}
	for _, row := range s.rows[collection] {
		if row.String("case_id") == caseID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *memoryStore) CreateCase(_ context.Context, fields fieldmap.Record) (string, error) {
	s.record("create case")
	if s.writeErr != nil {
		return "", s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("new-case-%d", s.nextID)
	fields["id"] = id
	s.cases = append(s.cases, fields)
	return id, nil
}

func (s *memoryStore) UpdateCase(_ context.Context, caseID string, fields fieldmap.Record) error {
	s.record("update case " + caseID)
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cases {
		if c.String("id") == caseID {
			fields["id"] = caseID
			s.cases[i] = fields
			return nil
		}
	}
	return backend.ErrNotFound
}

func (s *memoryStore) DeleteCase(_ context.Context, caseID string) error {
	s.record("delete case " + caseID)
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cases {
		if c.String("id") == caseID {
			s.cases = append(s.cases[:i], s.cases[i+1:]...)
			return nil
		}
	}
	return backend.ErrNotFound
}

func (s *memoryStore) Create(
	_ context.Context,
	caseID string,
	collection models.Collection,
	fields fieldmap.Record,
) (string, error) {
	s.record(fmt.Sprintf("create %s", collection))
	if s.writeErr != nil {
		return "", s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("%s-%d", collection, s.nextID)
	if s.assignID != "" {
		id = s.assignID
	}
	fields["id"] = id
	fields["case_id"] = caseID
	s.rows[collection] = append(s.rows[collection], fields)
	return id, nil
}

func (s *memoryStore) Update(_ context.Context, collection models.Collection, id string, fields fieldmap.Record) error {
	s.record(fmt.Sprintf("update %s %s", collection, id))
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows[collection] {
		if row.String("id") == id {
			fields["id"] = id
			fields["case_id"] = row["case_id"]
			s.rows[collection][i] = fields
			return nil
		}
	}
	return backend.ErrNotFound
}

func (s *memoryStore) Delete(_ context.Context, collection models.Collection, id string) error {
	s.record(fmt.Sprintf("delete %s %s", collection, id))
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[collection]
	for i, row := range rows {
		if row.String("id") == id {
			s.rows[collection] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return backend.ErrNotFound
}

func (s *memoryStore) UploadImage(_ context.Context, partyID, _, _ string, r io.Reader) (string, error) {
	s.record("upload image " + partyID)
	if s.writeErr != nil {
		return "", s.writeErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "/api/parties/" + partyID + "/image", nil
}
