package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey-tracker/internal/config"
	"journey-tracker/internal/journey"
	"journey-tracker/internal/planner"
)

type stubPlanner struct{}

func (stubPlanner) ResolvePlace(ctx context.Context, name string) ([]planner.Place, error) {
	return []planner.Place{{Name: name, GID: "gid-" + name}}, nil
}

func (stubPlanner) FetchTrips(ctx context.Context, originID, destinationID string, at time.Time, relatesTo planner.RelatesTo) ([]planner.Itinerary, error) {
	return nil, nil
}

func (stubPlanner) RefreshCredentials(ctx context.Context) error { return nil }

func newTestServer(t *testing.T) (*Server, *journey.Tracker, *journey.PauseStore) {
	t.Helper()
	pauses := journey.NewPauseStore()
	def := config.RouteDefinition{From: "9021001", Destination: "9021002"}
	tr, err := journey.NewTracker(context.Background(), stubPlanner{}, def, 0, time.Minute, pauses, nil, nil, time.UTC)
	require.NoError(t, err)
	return NewServer([]*journey.Tracker{tr}, nil, pauses), tr, pauses
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListJourneys(t *testing.T) {
	s, tr, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/journeys", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, tr.Key(), resp.Data[0].Key)
	assert.Equal(t, "Journey 1", resp.Data[0].Name)
}

func TestGetJourneyNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/journeys/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetPause(t *testing.T) {
	s, tr, pauses := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/journeys/"+tr.Key()+"/pause", `{"paused": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, pauses.IsPaused(tr.Key()))
	assert.True(t, tr.State().Paused)

	rec = do(t, s, http.MethodPut, "/journeys/"+tr.Key()+"/pause", `{"paused": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, pauses.IsPaused(tr.Key()))
}

func TestSetPauseRejectsMissingBody(t *testing.T) {
	s, tr, _ := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/journeys/"+tr.Key()+"/pause", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTogglePause(t *testing.T) {
	s, tr, pauses := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/journeys/"+tr.Key()+"/pause/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, pauses.IsPaused(tr.Key()))

	rec = do(t, s, http.MethodPost, "/journeys/"+tr.Key()+"/pause/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, pauses.IsPaused(tr.Key()))
}

func TestPauseUnknownJourney(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/journeys/nope/pause/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListWindowsEmpty(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/windows", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}
