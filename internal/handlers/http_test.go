package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rehabit/internal/insight"
	"rehabit/internal/models"
	"rehabit/internal/store"
)

// newTestHandler wires a handler over an in-memory store and a service
// with no published models. The cache is deliberately absent: only
// endpoints that never touch it are exercised here.
func newTestHandler(t *testing.T) (*Handler, *store.Store) {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := insight.New(insight.Options{ArtifactsDir: t.TempDir()})
	return New(st, svc, nil), st
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func TestCreateUser(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"name":"Alice","email":"alice@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/create", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateUser(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	decode(t, w, &user)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Alice", user.Name)
}

func TestCreateUserValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing name", `{"email":"a@b.com"}`},
		{"bad email", `{"name":"Alice","email":"nope"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users/create", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			h.CreateUser(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"name":"Alice","email":"alice@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/create", strings.NewReader(body))
	h.CreateUser(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/users/create", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateUser(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUserMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/create", nil)
	w := httptest.NewRecorder()
	h.CreateUser(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGetUser(t *testing.T) {
	h, st := newTestHandler(t)
	user, err := st.CreateUser(context.Background(), "Alice", "alice@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/users/get?user_id=%d", user.ID), nil)
	w := httptest.NewRecorder()
	h.GetUser(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.User
	decode(t, w, &got)
	assert.Equal(t, user.Email, got.Email)
}

func TestGetUserErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"missing param", "/api/users/get", http.StatusBadRequest},
		{"not a number", "/api/users/get?user_id=abc", http.StatusBadRequest},
		{"non positive", "/api/users/get?user_id=0", http.StatusBadRequest},
		{"not found", "/api/users/get?user_id=999", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			w := httptest.NewRecorder()
			h.GetUser(w, req)
			assert.Equal(t, tc.status, w.Code)

			var body map[string]string
			decode(t, w, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestValidateActivity(t *testing.T) {
	valid := logActivityRequest{
		UserID:            1,
		ActivityType:      "work",
		Duration:          60,
		ProductivityScore: 7,
		FocusLevel:        "high",
	}

	_, ok := validateActivity(valid)
	assert.True(t, ok)

	cases := []struct {
		name   string
		mutate func(*logActivityRequest)
	}{
		{"no user", func(r *logActivityRequest) { r.UserID = 0 }},
		{"bad type", func(r *logActivityRequest) { r.ActivityType = "nap" }},
		{"negative duration", func(r *logActivityRequest) { r.Duration = -5 }},
		{"score too low", func(r *logActivityRequest) { r.ProductivityScore = 0 }},
		{"score too high", func(r *logActivityRequest) { r.ProductivityScore = 11 }},
		{"bad focus", func(r *logActivityRequest) { r.FocusLevel = "extreme" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			msg, ok := validateActivity(req)
			assert.False(t, ok)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestListActivitiesEmptyIsArray(t *testing.T) {
	h, st := newTestHandler(t)
	user, err := st.CreateUser(context.Background(), "Alice", "alice@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/activities?user_id=%d", user.ID), nil)
	w := httptest.NewRecorder()
	h.ListActivities(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestPredictionsDegradeWithoutModel(t *testing.T) {
	h, st := newTestHandler(t)
	user, err := st.CreateUser(context.Background(), "Alice", "alice@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/predictions?user_id=%d", user.ID), nil)
	w := httptest.NewRecorder()
	h.Predictions(w, req)

	// No trained model is a degraded success, not a client error.
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Available   bool                   `json:"available"`
		Predictions []models.ForecastPoint `json:"predictions"`
	}
	decode(t, w, &body)
	assert.False(t, body.Available)
	assert.NotNil(t, body.Predictions)
	assert.Empty(t, body.Predictions)
}

func TestRecommendationsWithoutModels(t *testing.T) {
	h, st := newTestHandler(t)
	user, err := st.CreateUser(context.Background(), "Alice", "alice@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/recommendations?user_id=%d", user.ID), nil)
	w := httptest.NewRecorder()
	h.Recommendations(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	decode(t, w, &body)
	assert.NotNil(t, body.Recommendations)
}

func TestCORSPreflight(t *testing.T) {
	wrapped := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	w = httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
