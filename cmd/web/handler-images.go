package main

import (
	"net/http"
	"strconv"

	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/errors"
)

const maxImageBytes = 10 << 20

type imageResponse struct {
	ImageURL string `json:"imageUrl"`
}

func (app *application) uploadPartyImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+maxBodyBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		app.clientError(w, r, http.StatusBadRequest, errors.Wrap(err, "parse multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, errors.Wrap(err, "read form file"))
		return
	}
	defer file.Close()

	ctx := r.Context()
	c, err := app.activeCase(ctx, r.PathValue("caseID"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	imageURL, err := app.forwarder.UploadPartyImage(ctx, c, r.PathValue("id"), header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	app.saveActiveCase(ctx, c)
	app.writeJSON(w, r, http.StatusCreated, imageResponse{ImageURL: imageURL})
}

func (app *application) partyImage(w http.ResponseWriter, r *http.Request) {
	if app.images == nil {
		app.backendError(w, r, errors.Wrap(backend.ErrUnsupported, "serve party image"))
		return
	}
	data, contentType, err := app.images.PartyImage(r.Context(), r.PathValue("id"))
	if err != nil {
		app.backendError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
