package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/models"
)

const (
	activeCaseKey = "activeCase"
	maxBodyBytes  = 1 << 20
)

var errBadRequest = errors.NewSentinel("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// readJSON decodes a single JSON value from the request body. Decoding failures wrap errBadRequest.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadRequest, errors.Wrap(err, "decode request body"))
	}
	if dec.More() {
		return errors.Wrap(errBadRequest, "request body must hold a single JSON value")
	}
	return nil
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeError(w, http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	attrs := []slog.Attr{slog.String("method", method), slog.String("uri", uri)}
	if err != nil {
		attrs = append(attrs, errors.SlogError(err))
	}
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status), attrs...)
	app.writeError(w, status)
}

func (app *application) writeError(w http.ResponseWriter, status int) {
	body, _ := json.Marshal(errorResponse{Error: http.StatusText(status)})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, nil)
}

// backendError answers with the status matching err's sentinel.
func (app *application) backendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		app.clientError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, backend.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, err)
	case errors.Is(err, backend.ErrReadOnly):
		app.clientError(w, r, http.StatusMethodNotAllowed, err)
	case errors.Is(err, backend.ErrUnsupported):
		app.clientError(w, r, http.StatusNotImplemented, err)
	case errors.Is(err, backend.ErrStatus):
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "backend rejected request", errors.SlogError(err))
		app.writeError(w, http.StatusBadGateway)
	default:
		app.serverError(w, r, err)
	}
}

// activeCase returns the session's case aggregate, loading it from the backend when the session holds another case
// or none at all.
func (app *application) activeCase(ctx context.Context, caseID string) (*models.Case, error) {
	if c, ok := app.sessionManager.Get(ctx, activeCaseKey).(models.Case); ok && c.ID == caseID {
		return &c, nil
	}
	c, err := app.aggregator.LoadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	app.saveActiveCase(ctx, c)
	return c, nil
}

func (app *application) saveActiveCase(ctx context.Context, c *models.Case) {
	app.sessionManager.Put(ctx, activeCaseKey, *c)
}

// forgetActiveCase drops the session's case when it is caseID.
func (app *application) forgetActiveCase(ctx context.Context, caseID string) {
	if c, ok := app.sessionManager.Get(ctx, activeCaseKey).(models.Case); ok && c.ID == caseID {
		app.sessionManager.Remove(ctx, activeCaseKey)
	}
}
