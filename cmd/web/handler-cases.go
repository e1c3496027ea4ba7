package main

import (
	"net/http"

	"github.com/myrjola/casemate/internal/models"
)

// caseFile is the request body of the case endpoints. Collections are edited through the entity endpoints.
type caseFile struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.CaseStatus `json:"status"`
	Detective   string            `json:"detective"`
}

func (app *application) listCases(w http.ResponseWriter, r *http.Request) {
	cases, err := app.aggregator.ListCases(r.Context())
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, cases)
}

func (app *application) getCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := app.aggregator.LoadCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	app.saveActiveCase(ctx, c)
	app.writeJSON(w, r, http.StatusOK, c)
}

func (app *application) createCase(w http.ResponseWriter, r *http.Request) {
	var body caseFile
	if err := readJSON(w, r, &body); err != nil {
		app.backendError(w, r, err)
		return
	}
	ctx := r.Context()
	c, err := app.forwarder.CreateCase(ctx, models.Case{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Detective:   body.Detective,
	})
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	app.saveActiveCase(ctx, c)
	app.writeJSON(w, r, http.StatusCreated, c)
}

func (app *application) updateCase(w http.ResponseWriter, r *http.Request) {
	var body caseFile
	if err := readJSON(w, r, &body); err != nil {
		app.backendError(w, r, err)
		return
	}
	ctx := r.Context()
	c, err := app.activeCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	updated := *c
	updated.Title = body.Title
	updated.Description = body.Description
	updated.Detective = body.Detective
	if body.Status != "" {
		updated.Status = body.Status
	}
	if err = app.forwarder.UpdateCase(ctx, &updated); err != nil {
		app.backendError(w, r, err)
		return
	}
	app.saveActiveCase(ctx, &updated)
	app.writeJSON(w, r, http.StatusOK, updated)
}

func (app *application) deleteCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID := r.PathValue("caseID")
	if err := app.forwarder.DeleteCase(ctx, caseID); err != nil {
		app.backendError(w, r, err)
		return
	}
	app.forgetActiveCase(ctx, caseID)
	w.WriteHeader(http.StatusNoContent)
}
