package main

import (
	"bufio"
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/myrjola/casemate/internal/ai"
	"github.com/myrjola/casemate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoCase = "/api/cases/case-001"

func Test_healthy(t *testing.T) {
	server := startTestServer(t, io.Discard, testLookupEnv(nil))

	status, body := server.Do(t, http.MethodGet, "/api/healthy", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func Test_cases(t *testing.T) {
	server := startTestServer(t, io.Discard, testLookupEnv(nil))

	var cases []models.Case
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodGet, "/api/cases", nil, &cases))
	require.Len(t, cases, 1)
	assert.Equal(t, "The Inheritor's Silence", cases[0].Title)

	var c models.Case
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodGet, demoCase, nil, &c))
	assert.Len(t, c.Parties, 3)
	assert.Len(t, c.Clues, 2)
	assert.Len(t, c.Timeline, 4)
	require.Len(t, c.Statements, 1)
	assert.Equal(t, "Elena Vance", c.Statements[0].SpeakerName)

	status, _ := server.Do(t, http.MethodGet, "/api/cases/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)

	var created models.Case
	require.Equal(t, http.StatusCreated, server.DoJSON(t, http.MethodPost, "/api/cases",
		caseFile{Title: "The Glass Key", Detective: "Ned Beaumont"}, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, models.CaseStatusOpen, created.Status)
	assert.Empty(t, created.Parties)

	var updated models.Case
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodPut, "/api/cases/"+created.ID,
		caseFile{Title: "The Glass Key", Status: models.CaseStatusSolved}, &updated))
	assert.Equal(t, models.CaseStatusSolved, updated.Status)

	status, _ = server.Do(t, http.MethodDelete, "/api/cases/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = server.Do(t, http.MethodGet, "/api/cases/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func Test_entities(t *testing.T) {
	server := startTestServer(t, io.Discard, testLookupEnv(nil))

	var clue models.Clue
	require.Equal(t, http.StatusCreated, server.DoJSON(t, http.MethodPost, demoCase+"/clues",
		models.Clue{Title: "Torn Glove", LinkedSuspects: []string{"s3"}}, &clue))
	require.NotEmpty(t, clue.ID)
	assert.Equal(t, models.ConfidenceQuestionable, clue.Confidence)

	clue.Confidence = models.ConfidenceConfirmed
	status, _ := server.Do(t, http.MethodPut, demoCase+"/clues/"+clue.ID, clue)
	require.Equal(t, http.StatusOK, status)

	var c models.Case
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodGet, demoCase, nil, &c))
	stored, ok := c.Clue(clue.ID)
	require.True(t, ok)
	assert.Equal(t, models.ConfidenceConfirmed, stored.Confidence)
	assert.Equal(t, []string{"s3"}, stored.LinkedSuspects)

	status, _ = server.Do(t, http.MethodDelete, demoCase+"/clues/"+clue.ID, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = server.Do(t, http.MethodDelete, demoCase+"/clues/"+clue.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = server.Do(t, http.MethodDelete, demoCase+"/parties/s2", nil)
	require.Equal(t, http.StatusNoContent, status)
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodGet, demoCase, nil, &c))
	assert.Len(t, c.Parties, 2)
	vial, ok := c.Clue("c1")
	require.True(t, ok)
	assert.Equal(t, []string{"s2"}, vial.LinkedSuspects, "deleting a party leaves references alone")

	status, _ = server.Do(t, http.MethodPost, demoCase+"/weapons", models.Clue{Title: "Candlestick"})
	assert.Equal(t, http.StatusNotFound, status)

	req, err := http.NewRequest(http.MethodPost, server.url+demoCase+"/clues", strings.NewReader("{"))
	require.NoError(t, err)
	status, _ = server.send(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func Test_entitiesOfAnotherCase(t *testing.T) {
	server := startTestServer(t, io.Discard, testLookupEnv(nil))

	var other models.Case
	require.Equal(t, http.StatusCreated, server.DoJSON(t, http.MethodPost, "/api/cases", caseFile{Title: "Other"}, &other))
	otherCase := "/api/cases/" + other.ID

	status, _ := server.Do(t, http.MethodPut, otherCase+"/parties/s1", models.Party{Name: "Hijacked"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = server.Do(t, http.MethodDelete, otherCase+"/clues/c1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = server.Do(t, http.MethodDelete, otherCase+"/parties/s2", nil)
	assert.Equal(t, http.StatusNotFound, status)

	var c models.Case
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodGet, otherCase, nil, &c))
	assert.Empty(t, c.Parties)

	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodGet, demoCase, nil, &c))
	julian, ok := c.Party("s1")
	require.True(t, ok)
	assert.Equal(t, "Julian Sterling", julian.Name)
	assert.Len(t, c.Parties, 3)
	assert.Len(t, c.Clues, 2)
}

func Test_partyImage(t *testing.T) {
	server := startTestServer(t, io.Discard, testLookupEnv(nil))
	image := []byte("\x89PNG\r\n\x1a\nportrait")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="julian.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, server.url+demoCase+"/parties/s1/image", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, data := server.send(t, req)
	require.Equal(t, http.StatusCreated, status, "body: %s", data)
	assert.Contains(t, string(data), `/api/parties/s1/image?t=`)

	resp, err := server.client.Get(server.url + "/api/parties/s1/image?t=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", resp.Header.Get("Cache-Control"))
	assert.Equal(t, image, got)

	status, _ = server.Do(t, http.MethodGet, "/api/parties/s2/image", nil)
	assert.Equal(t, http.StatusNotFound, status)

	var other models.Case
	require.Equal(t, http.StatusCreated, server.DoJSON(t, http.MethodPost, "/api/cases", caseFile{Title: "Other"}, &other))
	body.Reset()
	mw = multipart.NewWriter(&body)
	part, err = mw.CreateFormFile("file", "hijack.png")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req, err = http.NewRequest(http.MethodPost, server.url+"/api/cases/"+other.ID+"/parties/s1/image", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, _ = server.send(t, req)
	assert.Equal(t, http.StatusNotFound, status)
}

func Test_assistant(t *testing.T) {
	server := startTestServer(t, io.Discard, testLookupEnv(nil))

	var reply assistantReply
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodPost, demoCase+"/assistant",
		assistantRequest{Message: "Who poisoned the tea?"}, &reply))
	assert.Equal(t, ai.ReplyMissingKey, reply.Reply)

	status, _ := server.Do(t, http.MethodPost, demoCase+"/assistant", assistantRequest{Prompt: "weapon"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = server.Do(t, http.MethodPost, demoCase+"/assistant", assistantRequest{})
	assert.Equal(t, http.StatusBadRequest, status)

	var accusation models.Accusation
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodPost, demoCase+"/accusation", nil, &accusation))
	assert.Equal(t, ai.MockAccusation(), accusation)
}

func Test_assistantStream(t *testing.T) {
	server := startTestServer(t, io.Discard, testLookupEnv(nil))

	req, err := http.NewRequest(http.MethodPost, server.url+demoCase+"/assistant/stream",
		strings.NewReader(`{"message":"Who poisoned the tea?"}`))
	require.NoError(t, err)
	resp, err := server.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "notebook")
	assert.Equal(t, "event: done", lines[1])
}

func Test_readOnlyBackend(t *testing.T) {
	server := startTestServer(t, io.Discard, testLookupEnv(map[string]string{
		"CASEMATE_BACKEND":     "static",
		"CASEMATE_STATIC_PATH": "../../internal/backend/static/testdata/case.json",
	}))
	caseURL := "/api/cases/" + url.PathEscape("Murder at the Manor")

	var c models.Case
	require.Equal(t, http.StatusOK, server.DoJSON(t, http.MethodGet, caseURL, nil, &c))
	assert.Len(t, c.Parties, 2)

	status, _ := server.Do(t, http.MethodPost, caseURL+"/clues", models.Clue{Title: "Candlestick"})
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status, _ = server.Do(t, http.MethodGet, "/api/parties/p1/image", nil)
	assert.Equal(t, http.StatusNotImplemented, status)
}
