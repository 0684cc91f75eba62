//go:build integration

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/debatequest/platform/internal/domain"
)

// POST sends a JSON body and returns the response.
func (env *TestEnv) POST(path string, body any) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	resp, err := http.Post(env.Server.URL+path, "application/json", &buf)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// GET fetches path.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// DecodeBody decodes a JSON response into dst and closes the body.
func (env *TestEnv) DecodeBody(resp *http.Response, wantStatus int, dst any) {
	env.t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		env.t.Fatalf("%s %s: expected %d, got %d", resp.Request.Method, resp.Request.URL.Path, wantStatus, resp.StatusCode)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			env.t.Fatalf("decode: %v", err)
		}
	}
}

// PassQuiz answers every item of a single-choice activity correctly and
// finishes the session.
func (env *TestEnv) PassQuiz(levelID, activityID string) domain.AttemptRecord {
	env.t.Helper()
	level, _, _ := env.Catalog.Level(levelID)
	act, _, ok := level.Activity(activityID)
	if !ok {
		env.t.Fatalf("PassQuiz: unknown activity %s/%s", levelID, activityID)
	}

	var session struct {
		ID string `json:"id"`
	}
	env.DecodeBody(env.POST(fmt.Sprintf("/levels/%s/activities/%s/start", levelID, activityID), nil), http.StatusCreated, &session)

	for _, item := range act.Items {
		env.DecodeBody(env.POST("/sessions/"+session.ID+"/answers", domain.OptionAnswer(item.CorrectOption)), http.StatusOK, nil)
	}

	var rec domain.AttemptRecord
	env.DecodeBody(env.POST("/sessions/"+session.ID+"/finish", nil), http.StatusOK, &rec)
	return rec
}
