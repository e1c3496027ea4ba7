package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave)
	slow := alice.New(app.extendWriteDeadline)

	mux.HandleFunc("GET /api/healthy", app.healthy)

	mux.Handle("GET /api/cases", session.ThenFunc(app.listCases))
	mux.Handle("POST /api/cases", session.ThenFunc(app.createCase))
	mux.Handle("GET /api/cases/{caseID}", session.ThenFunc(app.getCase))
	mux.Handle("PUT /api/cases/{caseID}", session.ThenFunc(app.updateCase))
	mux.Handle("DELETE /api/cases/{caseID}", session.ThenFunc(app.deleteCase))

	mux.Handle("POST /api/cases/{caseID}/{collection}", session.ThenFunc(app.addEntity))
	mux.Handle("PUT /api/cases/{caseID}/{collection}/{id}", session.ThenFunc(app.updateEntity))
	mux.Handle("DELETE /api/cases/{caseID}/{collection}/{id}", session.ThenFunc(app.deleteEntity))

	mux.Handle("POST /api/cases/{caseID}/parties/{id}/image", session.ThenFunc(app.uploadPartyImage))
	mux.Handle("GET /api/parties/{id}/image", alice.New(imageCacheHeaders).ThenFunc(app.partyImage))

	mux.Handle("POST /api/cases/{caseID}/assistant", slow.Extend(session).ThenFunc(app.askAssistant))
	mux.Handle("POST /api/cases/{caseID}/assistant/stream",
		slow.Append(app.serverSentEventMiddleware).ThenFunc(app.streamAssistant))
	mux.Handle("POST /api/cases/{caseID}/accusation", slow.Extend(session).ThenFunc(app.accuse))

	mux.Handle("/", http.HandlerFunc(app.notFound))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
