package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myrjola/casemate/internal/ai"
	"github.com/myrjola/casemate/internal/errors"
)

// assistantRequest either asks a free question or names one of the quick prompts.
type assistantRequest struct {
	Message  string         `json:"message"`
	Prompt   ai.QuickPrompt `json:"prompt"`
	TargetID string         `json:"targetId"`
}

type assistantReply struct {
	Reply string `json:"reply"`
}

func (app *application) askAssistant(w http.ResponseWriter, r *http.Request) {
	var body assistantRequest
	if err := readJSON(w, r, &body); err != nil {
		app.backendError(w, r, err)
		return
	}
	if body.Prompt == "" && body.Message == "" {
		app.clientError(w, r, http.StatusBadRequest, errors.Wrap(errBadRequest, "message or prompt is required"))
		return
	}
	ctx := r.Context()
	c, err := app.activeCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}

	var reply string
	if body.Prompt != "" {
		reply, err = app.assistant.QuickAnalysis(ctx, c, body.Prompt, body.TargetID)
		if errors.Is(err, ai.ErrUnknownPrompt) {
			app.clientError(w, r, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			app.serverError(w, r, err)
			return
		}
	} else {
		reply = app.assistant.Analyze(ctx, c, body.Message)
	}
	app.writeJSON(w, r, http.StatusOK, assistantReply{Reply: reply})
}

// streamAssistant answers a free question as Server Sent Events. Every fragment is one data frame holding a JSON
// string, and a final "done" event closes the stream.
func (app *application) streamAssistant(w http.ResponseWriter, r *http.Request) {
	var body assistantRequest
	if err := readJSON(w, r, &body); err != nil {
		app.backendError(w, r, err)
		return
	}
	if body.Message == "" {
		app.clientError(w, r, http.StatusBadRequest, errors.Wrap(errBadRequest, "message is required"))
		return
	}
	ctx := r.Context()
	c, err := app.activeCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err = app.assistant.StreamAnalysis(ctx, c, body.Message, func(delta string) error {
		data, marshalErr := json.Marshal(delta)
		if marshalErr != nil {
			return errors.Wrap(marshalErr, "marshal fragment")
		}
		if _, writeErr := fmt.Fprintf(w, "data: %s\n\n", data); writeErr != nil {
			return errors.Wrap(writeErr, "write fragment")
		}
		return errors.Wrap(rc.Flush(), "flush fragment")
	})
	if err != nil {
		// The status line is already sent, so the client only sees the stream end without a done event.
		app.logger.LogAttrs(ctx, slog.LevelError, "assistant stream interrupted", errors.SlogError(err))
		return
	}
	_, _ = fmt.Fprint(w, "event: done\ndata: {}\n\n")
	_ = rc.Flush()
}

func (app *application) accuse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := app.activeCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, app.assistant.GenerateAccusation(ctx, c))
}
