package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/models"
)

// collectionFromPath returns the collection named in the path or an error wrapping backend.ErrNotFound.
func collectionFromPath(r *http.Request) (models.Collection, error) {
	collection := models.Collection(r.PathValue("collection"))
	if !collection.Valid() {
		return "", errors.Wrap(backend.ErrNotFound, "unknown collection", slog.String("collection", string(collection)))
	}
	return collection, nil
}

func (app *application) addEntity(w http.ResponseWriter, r *http.Request) {
	collection, err := collectionFromPath(r)
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	ctx := r.Context()
	c, err := app.activeCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}

	var created any
	switch collection {
	case models.CollectionParties:
		var p models.Party
		if err = readJSON(w, r, &p); err == nil {
			created, err = app.forwarder.AddParty(ctx, c, p)
		}
	case models.CollectionClues:
		var clue models.Clue
		if err = readJSON(w, r, &clue); err == nil {
			created, err = app.forwarder.AddClue(ctx, c, clue)
		}
	case models.CollectionTimeline:
		var e models.TimelineEvent
		if err = readJSON(w, r, &e); err == nil {
			created, err = app.forwarder.AddTimelineEvent(ctx, c, e)
		}
	case models.CollectionStatements:
		var s models.Statement
		if err = readJSON(w, r, &s); err == nil {
			created, err = app.forwarder.AddStatement(ctx, c, s)
		}
	case models.CollectionTheories:
		var t models.Theory
		if err = readJSON(w, r, &t); err == nil {
			created, err = app.forwarder.AddTheory(ctx, c, t)
		}
	}
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	app.saveActiveCase(ctx, c)
	app.writeJSON(w, r, http.StatusCreated, created)
}

func (app *application) updateEntity(w http.ResponseWriter, r *http.Request) {
	collection, err := collectionFromPath(r)
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	ctx := r.Context()
	c, err := app.activeCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	id := r.PathValue("id")

	var updated any
	switch collection {
	case models.CollectionParties:
		var p models.Party
		if err = readJSON(w, r, &p); err == nil {
			p.ID = id
			updated, err = p, app.forwarder.UpdateParty(ctx, c, p)
		}
	case models.CollectionClues:
		var clue models.Clue
		if err = readJSON(w, r, &clue); err == nil {
			clue.ID = id
			updated, err = clue, app.forwarder.UpdateClue(ctx, c, clue)
		}
	case models.CollectionTimeline:
		var e models.TimelineEvent
		if err = readJSON(w, r, &e); err == nil {
			e.ID = id
			updated, err = e, app.forwarder.UpdateTimelineEvent(ctx, c, e)
		}
	case models.CollectionStatements:
		var s models.Statement
		if err = readJSON(w, r, &s); err == nil {
			s.ID = id
			updated, err = s, app.forwarder.UpdateStatement(ctx, c, s)
		}
	case models.CollectionTheories:
		var t models.Theory
		if err = readJSON(w, r, &t); err == nil {
			t.ID = id
			updated, err = t, app.forwarder.UpdateTheory(ctx, c, t)
		}
	}
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	app.saveActiveCase(ctx, c)
	app.writeJSON(w, r, http.StatusOK, updated)
}

func (app *application) deleteEntity(w http.ResponseWriter, r *http.Request) {
	collection, err := collectionFromPath(r)
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	ctx := r.Context()
	c, err := app.activeCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	id := r.PathValue("id")

	switch collection {
	case models.CollectionParties:
		err = app.forwarder.DeleteParty(ctx, c, id)
	case models.CollectionClues:
		err = app.forwarder.DeleteClue(ctx, c, id)
	case models.CollectionTimeline:
		err = app.forwarder.DeleteTimelineEvent(ctx, c, id)
	case models.CollectionStatements:
		err = app.forwarder.DeleteStatement(ctx, c, id)
	case models.CollectionTheories:
		err = app.forwarder.DeleteTheory(ctx, c, id)
	}
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	app.saveActiveCase(ctx, c)
	w.WriteHeader(http.StatusNoContent)
}
