package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gatherly/internal/config"
	"github.com/joshua-takyi/gatherly/internal/container"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	store  *testutil.Store
	views  *testutil.ViewStore
	router *gin.Engine
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewStore()
	views := testutil.NewViewStore()
	cfg := &config.Config{
		Environment:            "test",
		CORSAllowedOrigins:     []string{"http://localhost:3000"},
		ParticipationRateLimit: 1000,
		ParticipationRateBurst: 1000,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := container.NewContainer(cfg, logger, testutil.FakeTokens{}, container.Repos{
		Auth:           testutil.NewFakeAuth(),
		Profiles:       store,
		Events:         store,
		Categories:     store,
		Participations: store,
		Views:          views,
	})
	return &apiFixture{store: store, views: views, router: SetupRoutes(c)}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Total   int             `json:"total"`
}

func (f *apiFixture) do(t *testing.T, method, path string, as *models.Profile, body any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+testutil.AccessToken(as))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func eventPath(id int64, suffix string) string {
	return fmt.Sprintf("/api/v1/events/%d%s", id, suffix)
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
}

func TestListEvents_GeoQuery(t *testing.T) {
	f := newAPI(t)
	host := f.store.SeedProfile("host")
	near := f.store.SeedEvent(host.ID, func(e *models.Event) { e.Lat, e.Lng = 40.01, -74.0 })
	f.store.SeedEvent(host.ID, func(e *models.Event) { e.Lat, e.Lng = 41.0, -74.0 })

	status, resp := f.do(t, http.MethodGet, "/api/v1/events?lat=40.0&lng=-74.0&radius=10", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &events))
	require.Len(t, events, 1)
	assert.EqualValues(t, near.ID, events[0]["id"])
	assert.EqualValues(t, 0, events[0]["attendee_count"])
	assert.Equal(t, "host", events[0]["host_username"])

	// malformed geo params are ignored rather than rejected
	for _, q := range []string{"?lat=abc&lng=-74.0&radius=10", "?lat=40.0&lng=-74.0", "?lat=NaN&lng=0&radius=5"} {
		status, resp = f.do(t, http.MethodGet, "/api/v1/events"+q, nil, nil)
		require.Equal(t, http.StatusOK, status, q)
		assert.Equal(t, 2, resp.Total, q)
	}

	status, resp = f.do(t, http.MethodGet, "/api/v1/events?lat=40.0&lng=-74.0&radius=-5", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, resp.Total)
}

func TestJoinLeaveOverHTTP(t *testing.T) {
	f := newAPI(t)
	host := f.store.SeedProfile("host")
	ada := f.store.SeedProfile("ada")
	bob := f.store.SeedProfile("bob")
	cara := f.store.SeedProfile("cara")
	event := f.store.SeedEvent(host.ID, func(e *models.Event) { e.Capacity = 2 })

	status, resp := f.do(t, http.MethodPost, eventPath(event.ID, "/join"), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp = f.do(t, http.MethodPost, eventPath(event.ID, "/join"), ada, nil)
	require.Equal(t, http.StatusOK, status)
	var joined struct {
		ParticipationID int64  `json:"participation_id"`
		Status          string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &joined))
	assert.NotZero(t, joined.ParticipationID)
	assert.Equal(t, "JOINED", joined.Status)

	tests := []struct {
		name   string
		method string
		suffix string
		as     *models.Profile
		status int
		code   string
	}{
		{"join twice", http.MethodPost, "/join", ada, http.StatusBadRequest, "already_joined"},
		{"fill last seat", http.MethodPost, "/join", cara, http.StatusOK, ""},
		{"full", http.MethodPost, "/join", bob, http.StatusBadRequest, "capacity_exceeded"},
		{"member rejoins full event", http.MethodPost, "/join", ada, http.StatusBadRequest, "capacity_exceeded"},
		{"host", http.MethodPost, "/join", host, http.StatusForbidden, "forbidden"},
		{"leave never joined", http.MethodPost, "/leave", bob, http.StatusBadRequest, "not_a_participant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := f.do(t, tt.method, eventPath(event.ID, tt.suffix), tt.as, nil)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.code == "", resp.Success)
		})
	}

	_, resp = f.do(t, http.MethodPost, eventPath(event.ID, "/join"), bob, nil)
	assert.Equal(t, "Event is full.", resp.Error)

	status, _ = f.do(t, http.MethodPost, eventPath(event.ID, "/leave"), ada, nil)
	require.Equal(t, http.StatusOK, status)
	status, resp = f.do(t, http.MethodPost, eventPath(event.ID, "/leave"), ada, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "already_left", resp.Code)

	status, _ = f.do(t, http.MethodPost, eventPath(event.ID, "/join"), bob, nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp = f.do(t, http.MethodPost, eventPath(9999, "/join"), ada, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", resp.Code)

	status, _ = f.do(t, http.MethodPost, "/api/v1/events/abc/join", ada, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestConcurrentJoinsOverHTTP(t *testing.T) {
	f := newAPI(t)
	host := f.store.SeedProfile("host")
	event := f.store.SeedEvent(host.ID, func(e *models.Event) { e.Capacity = 2 })

	users := make([]*models.Profile, 3)
	for i := range users {
		users[i] = f.store.SeedProfile(fmt.Sprintf("u%d", i))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for _, u := range users {
		wg.Add(1)
		go func(u *models.Profile) {
			defer wg.Done()
			status, _ := f.do(t, http.MethodPost, eventPath(event.ID, "/join"), u, nil)
			mu.Lock()
			codes[status]++
			mu.Unlock()
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 2, codes[http.StatusOK])
	assert.Equal(t, 1, codes[http.StatusBadRequest])
}

func TestEventCRUDOverHTTP(t *testing.T) {
	f := newAPI(t)
	host := f.store.SeedProfile("host")
	other := f.store.SeedProfile("other")

	body := map[string]any{
		"title":         "Board games",
		"start_time":    "2030-05-01T18:00:00Z",
		"end_time":      "2030-05-01T22:00:00Z",
		"location_name": "Cafe",
		"address":       "3 Elm St",
		"lat":           51.5,
		"lng":           -0.12,
		"is_public":     false,
	}
	status, resp := f.do(t, http.MethodPost, "/api/v1/events", host, body)
	require.Equal(t, http.StatusCreated, status, resp.Error)
	var created models.Event
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, host.ID, created.HostID)
	assert.Equal(t, models.DefaultEventCapacity, created.Capacity)
	assert.False(t, created.IsPublic)

	status, _ = f.do(t, http.MethodGet, eventPath(created.ID, ""), nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = f.do(t, http.MethodGet, eventPath(created.ID, ""), other, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = f.do(t, http.MethodGet, eventPath(created.ID, ""), host, nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp = f.do(t, http.MethodPatch, eventPath(created.ID, ""), host, map[string]any{"is_public": true})
	require.Equal(t, http.StatusOK, status, resp.Error)

	status, resp = f.do(t, http.MethodGet, eventPath(created.ID, ""), nil, nil)
	require.Equal(t, http.StatusOK, status)
	var detail struct {
		Title     string `json:"title"`
		IsJoined  bool   `json:"is_joined"`
		Attendees []any  `json:"attendees"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, "Board games", detail.Title)
	assert.Empty(t, detail.Attendees)

	status, resp = f.do(t, http.MethodPatch, eventPath(created.ID, ""), other, map[string]any{"title": "Mine"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", resp.Code)

	status, resp = f.do(t, http.MethodPatch, eventPath(created.ID, ""), host, map[string]any{"capacity": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", resp.Code)

	status, _ = f.do(t, http.MethodPost, "/api/v1/events", host, map[string]any{"title": "No place"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodGet, eventPath(created.ID, "/views"), host, nil)
	assert.Equal(t, http.StatusOK, status)
	// one view each for the host read and the anonymous read
	assert.Equal(t, 2, f.views.Count())

	status, _ = f.do(t, http.MethodDelete, eventPath(created.ID, ""), other, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = f.do(t, http.MethodDelete, eventPath(created.ID, ""), host, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = f.do(t, http.MethodGet, eventPath(created.ID, ""), host, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCategoriesAndSignup(t *testing.T) {
	f := newAPI(t)

	status, resp := f.do(t, http.MethodGet, "/api/v1/categories", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, resp.Total)

	status, resp = f.do(t, http.MethodPost, "/api/v1/signup", nil, map[string]any{
		"username":  "ada",
		"email":     "ada@example.com",
		"password":  "Str0ng!Pass",
		"password2": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusCreated, status, resp.Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"Str0ng!Pass"}`))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var access *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "access_token" {
			access = c
		}
	}
	require.NotNil(t, access)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.AddCookie(access)
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ada"`)

	status, resp = f.do(t, http.MethodPost, "/api/v1/login", nil, map[string]any{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", resp.Code)
}
