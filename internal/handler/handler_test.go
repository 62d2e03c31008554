package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/auth"
	"github.com/hoplink/hoplink/internal/model"
	"github.com/hoplink/hoplink/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type envelopeBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code     string         `json:"code"`
		Message  string         `json:"message"`
		Metadata map[string]any `json:"metadata"`
	} `json:"error"`
	Timestamp string `json:"timestamp"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelopeBody {
	t.Helper()

	var body envelopeBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if body.Timestamp == "" {
		t.Error("envelope timestamp missing")
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", body.Timestamp, err)
	}
	return body
}

func TestWriteError_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperr.ErrURLNotFound, http.StatusNotFound, "URL_NOT_FOUND"},
		{"expired", apperr.ErrURLExpired, http.StatusGone, "URL_EXPIRED"},
		{"inactive", apperr.ErrURLInactive, http.StatusForbidden, "URL_INACTIVE"},
		{"alias taken", apperr.ErrCustomAliasTaken, http.StatusBadRequest, "CUSTOM_ALIAS_TAKEN"},
		{"timeout", apperr.ErrRequestTimeout, http.StatusRequestTimeout, "REQUEST_TIMEOUT"},
		{"external", apperr.ErrExternalService, http.StatusServiceUnavailable, "EXTERNAL_SERVICE_ERROR"},
		{"unknown error collapses", io.ErrUnexpectedEOF, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}

			body := decodeEnvelope(t, rr)
			if body.Success {
				t.Error("success should be false")
			}
			if body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("error body = %+v, want code %q", body.Error, tt.wantCode)
			}
		})
	}
}

type fakeResolver struct {
	projections map[string]*model.LinkProjection
}

func (f *fakeResolver) Resolve(_ context.Context, shortCode string) (*model.LinkProjection, error) {
	proj, ok := f.projections[shortCode]
	if !ok {
		return nil, apperr.ErrURLNotFound
	}
	return proj, nil
}

type fakeTracker struct {
	mu     sync.Mutex
	inputs []service.ClickInput
	done   chan struct{}
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{done: make(chan struct{}, 1)}
}

func (f *fakeTracker) TrackClick(_ context.Context, input service.ClickInput) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fakeTracker) wait(t *testing.T) service.ClickInput {
	t.Helper()

	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("click tracking never ran")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

func redirectRouter(h *RedirectHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/r/{shortUrl}", h.Redirect)
	r.Get("/api/info/{shortUrl}", h.Info)
	return r
}

func TestRedirect_Success(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{projections: map[string]*model.LinkProjection{
		"abc123": {OriginalURL: "https://example.com/page", IsActive: true, OwnerID: 7},
	}}
	tracker := newFakeTracker()
	h := NewRedirectHandler(resolver, tracker, time.Second, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/r/abc123", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Referer", "https://news.ycombinator.com/")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rr := httptest.NewRecorder()

	redirectRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	body := decodeEnvelope(t, rr)
	if !body.Success {
		t.Error("success should be true")
	}
	var data struct {
		OriginalURL string `json:"originalUrl"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.OriginalURL != "https://example.com/page" {
		t.Errorf("originalUrl = %q, want the resolved target", data.OriginalURL)
	}

	input := tracker.wait(t)
	if input.ShortCode != "abc123" {
		t.Errorf("tracked ShortCode = %q", input.ShortCode)
	}
	if input.IPAddress != "203.0.113.7" {
		t.Errorf("tracked IPAddress = %q, want first forwarded hop", input.IPAddress)
	}
	if input.UserAgent != "test-agent" || input.Referrer != "https://news.ycombinator.com/" {
		t.Errorf("tracked input = %+v", input)
	}
}

func TestRedirect_Validation(t *testing.T) {
	t.Parallel()

	h := NewRedirectHandler(&fakeResolver{}, newFakeTracker(), time.Second, testLogger())
	router := redirectRouter(h)

	longCode := strings.Repeat("x", 51)
	req := httptest.NewRequest(http.MethodGet, "/r/"+longCode, nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	body := decodeEnvelope(t, rr)
	if body.Error.Code != "INVALID_INPUT" {
		t.Errorf("error code = %q", body.Error.Code)
	}
}

func TestRedirect_NotFoundDoesNotTrack(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	h := NewRedirectHandler(&fakeResolver{projections: map[string]*model.LinkProjection{}}, tracker, time.Second, testLogger())

	rr := httptest.NewRecorder()
	redirectRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/r/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}

	select {
	case <-tracker.done:
		t.Error("failed redirects must not be tracked")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInfo_DoesNotTrack(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{projections: map[string]*model.LinkProjection{
		"abc123": {OriginalURL: "https://example.com", IsActive: true},
	}}
	tracker := newFakeTracker()
	h := NewRedirectHandler(resolver, tracker, time.Second, testLogger())

	rr := httptest.NewRecorder()
	redirectRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/info/abc123", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	body := decodeEnvelope(t, rr)
	var info struct {
		ShortCode   string `json:"short_code"`
		OriginalURL string `json:"original_url"`
		IsActive    bool   `json:"is_active"`
	}
	if err := json.Unmarshal(body.Data, &info); err != nil {
		t.Fatal(err)
	}
	if info.ShortCode != "abc123" || info.OriginalURL != "https://example.com" || !info.IsActive {
		t.Errorf("info = %+v", info)
	}

	select {
	case <-tracker.done:
		t.Error("info lookups must not be tracked as clicks")
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeCreator struct {
	link *model.Link
	err  error
	got  service.CreateLinkInput
}

func (f *fakeCreator) CreateLink(_ context.Context, input service.CreateLinkInput) (*model.Link, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return f.link, nil
}

type fixedCollisions int64

func (f fixedCollisions) CollisionCount() int64 { return int64(f) }

func authedRequest(method, target, body string, userID int, role string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{UserID: userID, Role: role}))
}

func TestCreateLink_Handler(t *testing.T) {
	t.Parallel()

	expiry := time.Now().Add(24 * time.Hour).UTC()
	creator := &fakeCreator{link: &model.Link{
		ID:          "01J3ZS6C9GQ5",
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		OwnerID:     7,
		IsActive:    true,
		ExpiresAt:   &expiry,
	}}

	h := NewLinkHandler(creator, fixedCollisions(0), testLogger())

	req := authedRequest(http.MethodPost, "/api/url/create",
		`{"original_url":"https://example.com","title":"Example"}`, 7, "user")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	if creator.got.OwnerID != 7 {
		t.Errorf("OwnerID = %d, want claims user", creator.got.OwnerID)
	}

	body := decodeEnvelope(t, rr)
	var link struct {
		ShortCode string `json:"short_code"`
	}
	if err := json.Unmarshal(body.Data, &link); err != nil {
		t.Fatal(err)
	}
	if link.ShortCode != "abc123" {
		t.Errorf("short_code = %q", link.ShortCode)
	}
}

func TestCreateLink_BadJSON(t *testing.T) {
	t.Parallel()

	h := NewLinkHandler(&fakeCreator{}, fixedCollisions(0), testLogger())

	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(http.MethodPost, "/api/url/create", "{broken", 7, "user"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestCreateLink_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := NewLinkHandler(&fakeCreator{}, fixedCollisions(0), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/url/create", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestCollisionMetrics(t *testing.T) {
	t.Parallel()

	h := NewLinkHandler(&fakeCreator{}, fixedCollisions(17), testLogger())

	rr := httptest.NewRecorder()
	h.CollisionMetrics(rr, authedRequest(http.MethodGet, "/api/url/metrics/collisions", "", 1, "admin"))

	body := decodeEnvelope(t, rr)
	var data struct {
		TotalCollisions int64 `json:"totalCollisions"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.TotalCollisions != 17 {
		t.Errorf("totalCollisions = %d, want 17", data.TotalCollisions)
	}
}

type fakeDashboards struct {
	reply *model.DashboardResponse
	err   error
	got   int
}

func (f *fakeDashboards) GetDashboard(_ context.Context, ownerID int) (*model.DashboardResponse, error) {
	f.got = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func TestDashboard_Get(t *testing.T) {
	t.Parallel()

	dashboards := &fakeDashboards{reply: &model.DashboardResponse{
		UserID:       7,
		TotalClicks:  120,
		TotalLinks:   4,
		UniqVisitors: 38,
		Status:       model.DashboardStatusLimited,
	}}
	h := NewDashboardHandler(dashboards, testLogger())

	rr := httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/api/dashboard", "", 7, "user"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if dashboards.got != 7 {
		t.Errorf("owner = %d, want claims user", dashboards.got)
	}

	body := decodeEnvelope(t, rr)
	var data struct {
		TotalLink  int64 `json:"total_link"`
		TotalClick int64 `json:"total_click"`
		Limited    bool  `json:"limited"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.TotalLink != 4 || data.TotalClick != 120 {
		t.Errorf("dashboard data = %+v", data)
	}
	if !data.Limited {
		t.Error("limited flag should surface truncated replies")
	}
}

func TestDashboard_ServiceError(t *testing.T) {
	t.Parallel()

	h := NewDashboardHandler(&fakeDashboards{err: apperr.ErrExternalService}, testLogger())

	rr := httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/api/dashboard", "", 7, "user"))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("redirect-service", "1.4.0", map[string]HealthChecker{
		"mongodb": pingFunc(func(context.Context) error { return nil }),
		"redis":   pingFunc(func(context.Context) error { return nil }),
	})

	rr := httptest.NewRecorder()
	h.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var live healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&live); err != nil {
		t.Fatal(err)
	}
	if live.Status != "UP" || live.Service != "redirect-service" || live.Version != "1.4.0" {
		t.Errorf("healthz = %+v", live)
	}

	rr = httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rr.Code)
	}
}

func TestHealth_ReadyzDependencyDown(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("redirect-service", "1.4.0", map[string]HealthChecker{
		"mongodb": pingFunc(func(context.Context) error { return context.DeadlineExceeded }),
	})

	rr := httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}

	var ready healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&ready); err != nil {
		t.Fatal(err)
	}
	if ready.Status != "DOWN" || ready.Checks["mongodb"] != "down" {
		t.Errorf("readyz = %+v", ready)
	}
}
