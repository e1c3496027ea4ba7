// Package restapi is the backend that talks to the Casemate REST API (/api/cases, /api/parties, /api/evidences,
// /api/timelines, /api/theories).
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/fieldmap"
	"github.com/myrjola/casemate/internal/models"
)

// StatusError is a non-success response. It matches backend.ErrStatus, and backend.ErrNotFound for 404s.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %s %s: %d %s - %s",
		e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == backend.ErrStatus || (e.StatusCode == http.StatusNotFound && target == backend.ErrNotFound)
}

// endpoint describes how one collection is laid out in the REST API.
type endpoint struct {
	path string
	// columns maps canonical field names to request body keys.
	columns map[string]string
	// updateIDKey is the body key carrying the entity id on PATCH.
	updateIDKey string
	// createExtras are constant body fields the API requires on PUT.
	createExtras func(now time.Time) map[string]any
}

var endpoints = map[models.Collection]endpoint{ //nolint:gochecknoglobals // read-only table
	models.CollectionParties: {
		path: "/api/parties",
		columns: map[string]string{
			"name":        "name",
			"role":        "role",
			"description": "description",
			"alibi":       "alibi",
		},
		updateIDKey: "partyid",
	},
	models.CollectionClues: {
		path: "/api/evidences",
		columns: map[string]string{
			"title":          "name",
			"description":    "description",
			"source":         "place",
			"confidence":     "status",
			"linkedSuspects": "suspects",
		},
		updateIDKey: "id",
	},
	models.CollectionTimeline: {
		path: "/api/timelines",
		columns: map[string]string{
			"time":        "name",
			"description": "description",
		},
		updateIDKey: "id",
		createExtras: func(now time.Time) map[string]any {
			return map[string]any{"timestamp": now.UnixMilli(), "place": "unknown", "status": "active"}
		},
	},
	models.CollectionTheories: {
		path: "/api/theories",
		columns: map[string]string{
			"title":   "name",
			"content": "content",
		},
		updateIDKey: "id",
	},
}

var caseColumns = map[string]string{ //nolint:gochecknoglobals // read-only table
	"title":       "name",
	"description": "short_description",
}

// Client is a [backend.Store] on top of the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a client for the API at baseURL. The HTTP client is used as is; requests have no timeout of
// their own beyond what the caller's context imposes.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(slog.String("source", "restapi")),
		now:        time.Now,
	}
}

// MappingOptions resolves the API's relative image paths and its timeline labels.
func (c *Client) MappingOptions() fieldmap.Options {
	return fieldmap.Options{AssetBaseURL: c.baseURL, NameIsTimeLabel: true}
}

func (c *Client) ListCases(ctx context.Context) ([]fieldmap.Record, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/cases", nil)
	if err != nil {
		return nil, errors.Wrap(err, "list cases")
	}
	rows, err := fieldmap.DecodeRows(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode cases")
	}
	return rows, nil
}

// FetchCase finds the case in the case list. The API has no single-case endpoint.
func (c *Client) FetchCase(ctx context.Context, caseID string) (fieldmap.Record, error) {
	rows, err := c.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.String("id") == caseID {
			return row, nil
		}
	}
	return nil, errors.Wrap(backend.ErrNotFound, "fetch case", slog.String("case_id", caseID))
}

// FetchCollection posts the case id to the collection endpoint. Statements are not stored by the API and always
// come back empty.
func (c *Client) FetchCollection(
	ctx context.Context,
	caseID string,
	collection models.Collection,
) ([]fieldmap.Record, error) {
	if collection == models.CollectionStatements {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "statements are not supported by the REST API")
		return []fieldmap.Record{}, nil
	}
	ep, ok := endpoints[collection]
	if !ok {
		return nil, errors.Wrap(backend.ErrUnsupported, "fetch collection", slog.String("collection", string(collection)))
	}
	body, err := c.do(ctx, http.MethodPost, ep.path, map[string]any{"caseid": caseID})
	if err != nil {
		return nil, errors.Wrap(err, "fetch collection", slog.String("collection", string(collection)))
	}
	rows, err := fieldmap.DecodeRows(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode collection", slog.String("collection", string(collection)))
	}
	return rows, nil
}

func (c *Client) CreateCase(ctx context.Context, fields fieldmap.Record) (string, error) {
	body, err := c.do(ctx, http.MethodPut, "/api/cases", fieldmap.Rename(fields, caseColumns))
	if err != nil {
		return "", errors.Wrap(err, "create case")
	}
	return parseID(body)
}

func (c *Client) UpdateCase(ctx context.Context, caseID string, fields fieldmap.Record) error {
	path := "/api/cases?case_id=" + url.QueryEscape(caseID)
	if _, err := c.do(ctx, http.MethodPatch, path, fieldmap.Rename(fields, caseColumns)); err != nil {
		return errors.Wrap(err, "update case")
	}
	return nil
}

func (c *Client) DeleteCase(ctx context.Context, caseID string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/api/cases", map[string]any{"caseid": caseID}); err != nil {
		return errors.Wrap(err, "delete case")
	}
	return nil
}

func (c *Client) Create(
	ctx context.Context,
	caseID string,
	collection models.Collection,
	fields fieldmap.Record,
) (string, error) {
	ep, err := lookupEndpoint(collection)
	if err != nil {
		return "", err
	}
	payload := fieldmap.Rename(fields, ep.columns)
	payload["caseid"] = caseID
	if ep.createExtras != nil {
		for k, v := range ep.createExtras(c.now()) {
			payload[k] = v
		}
	}
	body, err := c.do(ctx, http.MethodPut, ep.path, payload)
	if err != nil {
		return "", errors.Wrap(err, "create", slog.String("collection", string(collection)))
	}
	return parseID(body)
}

func (c *Client) Update(ctx context.Context, collection models.Collection, id string, fields fieldmap.Record) error {
	ep, err := lookupEndpoint(collection)
	if err != nil {
		return err
	}
	payload := fieldmap.Rename(fields, ep.columns)
	payload[ep.updateIDKey] = id
	if _, err = c.do(ctx, http.MethodPatch, ep.path, payload); err != nil {
		return errors.Wrap(err, "update", slog.String("collection", string(collection)), slog.String("id", id))
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, collection models.Collection, id string) error {
	ep, err := lookupEndpoint(collection)
	if err != nil {
		return err
	}
	if _, err = c.do(ctx, http.MethodDelete, ep.path, map[string]any{"id": id}); err != nil {
		return errors.Wrap(err, "delete", slog.String("collection", string(collection)), slog.String("id", id))
	}
	return nil
}

// UploadImage posts the portrait as the multipart field "file".
func (c *Client) UploadImage(
	ctx context.Context,
	partyID string,
	filename string,
	contentType string,
	r io.Reader,
) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", errors.Wrap(err, "create multipart part")
	}
	if _, err = io.Copy(part, r); err != nil {
		return "", errors.Wrap(err, "copy image")
	}
	if err = w.Close(); err != nil {
		return "", errors.Wrap(err, "close multipart writer")
	}

	path := "/api/parties/" + url.PathEscape(partyID) + "/image"
	if _, err = c.send(ctx, http.MethodPost, path, w.FormDataContentType(), &buf); err != nil {
		return "", errors.Wrap(err, "upload image", slog.String("party_id", partyID))
	}
	return c.baseURL + path, nil
}

func lookupEndpoint(collection models.Collection) (endpoint, error) {
	ep, ok := endpoints[collection]
	if !ok {
		return endpoint{}, errors.Wrap(backend.ErrUnsupported, "REST API collection",
			slog.String("collection", string(collection)))
	}
	return ep, nil
}

// do sends payload as JSON, if any, and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var (
		body        io.Reader
		contentType string
	)
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, contentType, body)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request", slog.String("method", method), slog.String("path", path))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "could not close response body",
				errors.SlogError(errors.Wrap(closeErr, "close response body")))
		}
	}()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	return respBody, nil
}

// parseID accepts the bare JSON string the entity endpoints return and the {"id": ...} object of the case endpoint.
func parseID(body []byte) (string, error) {
	var id string
	if err := json.Unmarshal(body, &id); err == nil && id != "" {
		return id, nil
	}
	rec, err := fieldmap.DecodeRecord(body)
	if err != nil {
		return "", errors.Wrap(err, "decode created id")
	}
	if id = rec.String("id"); id == "" {
		return "", errors.New("response did not contain an id", slog.String("body", string(body)))
	}
	return id, nil
}
