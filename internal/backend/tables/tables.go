// Package tables is the backend that keeps cases in BaaS-style SQLite tables with snake_case columns.
package tables

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/models"
	"github.com/myrjola/casemate/internal/sqlite"
)

// maxImageSize caps stored portraits.
const maxImageSize = 10 << 20

// table describes how a canonical record is laid out in one SQLite table.
type table struct {
	name string
	// columns maps canonical field names to column names.
	columns map[string]string
	// lists are columns holding JSON-encoded arrays.
	lists map[string]bool
	// omitEmpty are columns whose database default wins over an empty string.
	omitEmpty map[string]bool
}

var caseTable = table{ //nolint:gochecknoglobals // read-only table
	name: "cases",
	columns: map[string]string{
		"title":       "title",
		"description": "description",
		"status":      "status",
		"detective":   "detective",
	},
	omitEmpty: map[string]bool{"status": true},
}

var collectionTables = map[models.Collection]table{ //nolint:gochecknoglobals // read-only table
	models.CollectionParties: {
		name: "suspects",
		columns: map[string]string{
			"name":        "name",
			"role":        "role",
			"description": "description",
			"alibi":       "alibi",
			"motive":      "motive",
			"notes":       "notes",
			"imageUrl":    "image_url",
		},
	},
	models.CollectionClues: {
		name: "clues",
		columns: map[string]string{
			"title":          "title",
			"description":    "description",
			"source":         "source",
			"confidence":     "confidence",
			"linkedSuspects": "linked_suspects",
		},
		lists: map[string]bool{"linked_suspects": true},
	},
	models.CollectionTimeline: {
		name: "timeline_events",
		columns: map[string]string{
			"title":            "title",
			"time":             "time",
			"date":             "date",
			"description":      "description",
			"involvedSuspects": "involved_suspects",
			"isGap":            "is_gap",
		},
		lists: map[string]bool{"involved_suspects": true},
	},
	models.CollectionStatements: {
		name: "statements",
		columns: map[string]string{
			"speakerId":   "speaker_id",
			"speakerName": "speaker_name",
			"content":     "content",
			"timestamp":   "timestamp",
			"context":     "context",
		},
	},
	models.CollectionTheories: {
		name: "theories",
		columns: map[string]string{
			"title":          "title",
			"content":        "content",
			"linkedSuspects": "linked_suspects",
			"linkedClues":    "linked_clues",
			"createdAt":      "created_at",
		},
		lists:     map[string]bool{"linked_suspects": true, "linked_clues": true},
		omitEmpty: map[string]bool{"created_at": true},
	},
}

// selectColumns lists every column a read returns. The image blob is only served through PartyImage.
func (t table) selectColumns() string {
	cols := []string{"id"}
	if t.name != caseTable.name {
		cols = append(cols, "case_id")
	}
	for _, c := range t.sortedColumns() {
		cols = append(cols, quote(c))
	}
	cols = append(cols, "created_at")
	return strings.Join(cols, ", ")
}

func (t table) sortedColumns() []string {
	cols := make([]string, 0, len(t.columns))
	seen := map[string]bool{"created_at": true}
	for _, c := range t.columns {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	return cols
}

// row renames canonical fields to column values ready for binding.
func (t table) row(fields fieldmap.Record) (map[string]any, error) {
	renamed := fieldmap.Rename(fields, t.columns)
	out := make(map[string]any, len(renamed))
	for col, v := range renamed {
		if s, ok := v.(string); ok && s == "" && t.omitEmpty[col] {
			continue
		}
		if t.lists[col] {
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Wrap(err, "encode list column", slog.String("column", col))
			}
			v = string(encoded)
		}
		out[col] = v
	}
	return out, nil
}

func lookupTable(collection models.Collection) (table, error) {
	t, ok := collectionTables[collection]
	if !ok {
		return table{}, errors.Wrap(backend.ErrUnsupported, "unknown collection",
			slog.String("collection", string(collection)))
	}
	return t, nil
}

func quote(column string) string {
	return `"` + column + `"`
}

// Store implements backend.Store and backend.ImageSource on top of the application database.
type Store struct {
	read   *sqlx.DB
	write  *sqlx.DB
	logger *slog.Logger
}

func New(db *sqlite.Database, logger *slog.Logger) *Store {
	return &Store{
		read:   sqlx.NewDb(db.ReadOnly, sqlite.DriverName),
		write:  sqlx.NewDb(db.ReadWrite, sqlite.DriverName),
		logger: logger.With(slog.String("source", "tables")),
	}
}

func (s *Store) ListCases(ctx context.Context) ([]fieldmap.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM cases ORDER BY created_at, rowid", caseTable.selectColumns())
	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list cases")
	}
	return rows, nil
}

func (s *Store) FetchCase(ctx context.Context, caseID string) (fieldmap.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM cases WHERE id = ?", caseTable.selectColumns())
	rows, err := s.query(ctx, query, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch case", slog.String("case_id", caseID))
	}
	if len(rows) == 0 {
		return nil, errors.Wrap(backend.ErrNotFound, "fetch case", slog.String("case_id", caseID))
	}
	return rows[0], nil
}

func (s *Store) FetchCollection(
	ctx context.Context,
	caseID string,
	collection models.Collection,
) ([]fieldmap.Record, error) {
	t, err := lookupTable(collection)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE case_id = ? ORDER BY created_at, rowid", t.selectColumns(), t.name)
	rows, err := s.query(ctx, query, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch collection",
			slog.String("case_id", caseID), slog.String("collection", string(collection)))
	}
	return rows, nil
}

func (s *Store) CreateCase(ctx context.Context, fields fieldmap.Record) (string, error) {
	values, err := caseTable.row(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err = s.insert(ctx, caseTable.name, id, values); err != nil {
		return "", errors.Wrap(err, "create case")
	}
	return id, nil
}

func (s *Store) UpdateCase(ctx context.Context, caseID string, fields fieldmap.Record) error {
	values, err := caseTable.row(fields)
	if err != nil {
		return err
	}
	if err = s.update(ctx, caseTable.name, caseID, values); err != nil {
		return errors.Wrap(err, "update case", slog.String("case_id", caseID))
	}
	return nil
}

// DeleteCase removes a case. Its collections go with it through ON DELETE CASCADE.
func (s *Store) DeleteCase(ctx context.Context, caseID string) error {
	if err := s.delete(ctx, caseTable.name, caseID); err != nil {
		return errors.Wrap(err, "delete case", slog.String("case_id", caseID))
	}
	return nil
}

func (s *Store) Create(
	ctx context.Context,
	caseID string,
	collection models.Collection,
	fields fieldmap.Record,
) (string, error) {
	t, err := lookupTable(collection)
	if err != nil {
		return "", err
	}
	values, err := t.row(fields)
	if err != nil {
		return "", err
	}
	values["case_id"] = caseID
	id := uuid.NewString()
	if err = s.insert(ctx, t.name, id, values); err != nil {
		return "", errors.Wrap(err, "create",
			slog.String("case_id", caseID), slog.String("collection", string(collection)))
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, collection models.Collection, id string, fields fieldmap.Record) error {
	t, err := lookupTable(collection)
	if err != nil {
		return err
	}
	values, err := t.row(fields)
	if err != nil {
		return err
	}
	if err = s.update(ctx, t.name, id, values); err != nil {
		return errors.Wrap(err, "update", slog.String("collection", string(collection)), slog.String("id", id))
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection models.Collection, id string) error {
	t, err := lookupTable(collection)
	if err != nil {
		return err
	}
	if err = s.delete(ctx, t.name, id); err != nil {
		return errors.Wrap(err, "delete", slog.String("collection", string(collection)), slog.String("id", id))
	}
	return nil
}

// UploadImage stores the portrait next to the party row. The returned URL is served by the web service.
func (s *Store) UploadImage(
	ctx context.Context,
	partyID string,
	filename string,
	contentType string,
	r io.Reader,
) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageSize+1))
	if err != nil {
		return "", errors.Wrap(err, "read image", slog.String("filename", filename))
	}
	if len(data) > maxImageSize {
		return "", errors.New("image too large", slog.String("filename", filename), slog.Int("size", len(data)))
	}
	imageURL := fmt.Sprintf("/api/parties/%s/image", partyID)
	res, err := s.write.ExecContext(ctx,
		"UPDATE suspects SET image = ?, image_content_type = ?, image_url = ? WHERE id = ?",
		data, contentType, imageURL, partyID)
	if err != nil {
		return "", errors.Wrap(err, "store image", slog.String("party_id", partyID))
	}
	if err = requireAffected(res); err != nil {
		return "", errors.Wrap(err, "store image", slog.String("party_id", partyID))
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "stored party image",
		slog.String("party_id", partyID), slog.Int("size", len(data)))
	return imageURL, nil
}

func (s *Store) PartyImage(ctx context.Context, partyID string) ([]byte, string, error) {
	var image struct {
		Data        []byte         `db:"image"`
		ContentType sql.NullString `db:"image_content_type"`
	}
	err := s.read.GetContext(ctx, &image,
		"SELECT image, image_content_type FROM suspects WHERE id = ? AND image IS NOT NULL", partyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", errors.Wrap(backend.ErrNotFound, "party image", slog.String("party_id", partyID))
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "read party image", slog.String("party_id", partyID))
	}
	contentType := image.ContentType.String
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return image.Data, contentType, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]fieldmap.Record, error) {
	rows, err := s.read.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer func() {
		if err = rows.Close(); err != nil {
			err = errors.Wrap(err, "close rows")
			s.logger.Error("could not close rows", errors.SlogError(err))
		}
	}()
	records := []fieldmap.Record{}
	for rows.Next() {
		row := map[string]any{}
		if err = rows.MapScan(row); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		records = append(records, fieldmap.Record(row))
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return records, nil
}

func (s *Store) insert(ctx context.Context, tableName string, id string, values map[string]any) error {
	values["id"] = id
	cols := sortedKeys(values)
	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
		params[i] = ":" + c
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", //nolint:gosec // identifiers come from the tables above.
		tableName, strings.Join(quoted, ", "), strings.Join(params, ", "))
	if _, err := s.write.NamedExecContext(ctx, query, values); err != nil {
		if isForeignKeyViolation(err) {
			return errors.Wrap(backend.ErrNotFound, "case does not exist")
		}
		return errors.Wrap(err, "insert", slog.String("table", tableName))
	}
	return nil
}

func (s *Store) update(ctx context.Context, tableName string, id string, values map[string]any) error {
	cols := sortedKeys(values)
	assignments := make([]string, len(cols))
	for i, c := range cols {
		assignments[i] = fmt.Sprintf("%s = :%s", quote(c), c)
	}
	// An empty update still has to report a missing row.
	if len(assignments) == 0 {
		assignments = append(assignments, "id = id")
	}
	values["id"] = id
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", //nolint:gosec // identifiers come from the tables above.
		tableName, strings.Join(assignments, ", "))
	res, err := s.write.NamedExecContext(ctx, query, values)
	if err != nil {
		return errors.Wrap(err, "update", slog.String("table", tableName))
	}
	return requireAffected(res)
}

func (s *Store) delete(ctx context.Context, tableName string, id string) error {
	res, err := s.write.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", tableName), id)
	if err != nil {
		return errors.Wrap(err, "delete", slog.String("table", tableName))
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
