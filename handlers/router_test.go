package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/a2developers/website/backend/go-services/internal/database"
	"github.com/a2developers/website/backend/go-services/internal/demo"
	"github.com/a2developers/website/backend/go-services/internal/demo/service"
	"github.com/a2developers/website/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStatus struct {
	st database.Status
}

func (f *fakeStatus) Status() database.Status { return f.st }

// failingService returns err from every call.
type failingService struct {
	err error
}

func (f failingService) Book(ctx context.Context, req demo.BookingRequest) (*demo.DemoRequest, error) {
	if err := req.Normalize().Validate(); err != nil {
		return nil, err
	}
	return nil, f.err
}

func (f failingService) List(ctx context.Context) ([]*demo.DemoRequest, error) {
	return nil, f.err
}

type staticVerifier struct{}

type staticToken struct{}

func (staticToken) Claims(v interface{}) error {
	return json.Unmarshal([]byte(`{"sub":"admin"}`), v)
}

func (staticVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	if raw != "admin-token" {
		return nil, errors.New("bad token")
	}
	return staticToken{}, nil
}

func newTestRouter(svc DemoService, status *fakeStatus) *gin.Engine {
	return NewRouter(RouterOptions{
		Demos:          svc,
		Status:         status,
		Environment:    "test",
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxBodyBytes:   1024,
	})
}

func connected() *fakeStatus {
	return &fakeStatus{st: database.Status{State: database.StateConnected}}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookThenList(t *testing.T) {
	r := newTestRouter(service.NewMemoryService(), connected())

	w := do(r, http.MethodPost, "/api/book-demo", `{"name":"Jane Doe","email":"jane@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var booked struct {
		Message string `json:"message"`
		Demo    struct {
			ID        string    `json:"id"`
			Name      string    `json:"name"`
			Email     string    `json:"email"`
			Company   *string   `json:"company"`
			CreatedAt time.Time `json:"createdAt"`
		} `json:"demo"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booked))
	require.Equal(t, "Demo booked successfully!", booked.Message)
	require.NotEmpty(t, booked.Demo.ID)
	require.False(t, booked.Demo.CreatedAt.IsZero())
	require.Nil(t, booked.Demo.Company)

	w = do(r, http.MethodGet, "/api/demos", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Count int `json:"count"`
		Demos []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"demos"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.GreaterOrEqual(t, listed.Count, 1)
	require.Equal(t, "Jane Doe", listed.Demos[0].Name)
	require.Equal(t, booked.Demo.ID, listed.Demos[0].ID)
	require.Equal(t, "jane@x.com", listed.Demos[0].Email)
}

func TestListIsNewestFirst(t *testing.T) {
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := service.NewMemoryService(service.WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}))
	r := newTestRouter(svc, connected())

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/api/book-demo", fmt.Sprintf(`{"name":"n%d","email":"n%d@x.com"}`, i, i))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(r, http.MethodGet, "/api/demos", "")
	var listed struct {
		Count int `json:"count"`
		Demos []struct {
			Name      string    `json:"name"`
			CreatedAt time.Time `json:"createdAt"`
		} `json:"demos"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Equal(t, 3, listed.Count)
	require.Equal(t, "n2", listed.Demos[0].Name)
	for i := 1; i < len(listed.Demos); i++ {
		require.True(t, listed.Demos[i-1].CreatedAt.After(listed.Demos[i].CreatedAt))
	}
}

func TestBookDemo_Rejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
		want string
	}{
		{"empty name", `{"name":"","email":"a@b.com"}`, http.StatusBadRequest, `{"error":"Name and email are required"}`},
		{"missing email", `{"name":"Bob"}`, http.StatusBadRequest, `{"error":"Name and email are required"}`},
		{"bad email", `{"name":"Bob","email":"not-an-email"}`, http.StatusBadRequest, `{"error":"Invalid email format"}`},
		{"not json", `{"name":`, http.StatusBadRequest, `{"error":"Invalid request body"}`},
		{"wrong type", `{"name":42,"email":"a@b.com"}`, http.StatusBadRequest, `{"error":"Invalid request body"}`},
		{"name too long", `{"name":"` + strings.Repeat("x", 201) + `","email":"a@b.com"}`, http.StatusBadRequest, `{"error":"name is too long"}`},
		{"body too large", `{"name":"Bob","email":"a@b.com","message":"` + strings.Repeat("x", 2048) + `"}`, http.StatusRequestEntityTooLarge, `{"error":"Request body too large"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := service.NewMemoryService()
			r := newTestRouter(svc, connected())

			w := do(r, http.MethodPost, "/api/book-demo", tc.body)
			require.Equal(t, tc.code, w.Code)
			require.JSONEq(t, tc.want, w.Body.String())

			list, err := svc.List(context.Background())
			require.NoError(t, err)
			require.Empty(t, list)
		})
	}
}

func TestBookDemo_RequiresJSONContentType(t *testing.T) {
	r := newTestRouter(service.NewMemoryService(), connected())

	req := httptest.NewRequest(http.MethodPost, "/api/book-demo", strings.NewReader("name=Bob"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestPersistenceErrors(t *testing.T) {
	valid := `{"name":"Jane","email":"jane@x.com"}`
	cases := []struct {
		name    string
		err     error
		code    int
		bookMsg string
		listMsg string
	}{
		{"not connected", fmt.Errorf("insert demo: %w", database.ErrNotConnected), http.StatusServiceUnavailable, "Database not connected", "Database not connected"},
		{"driver failure", errors.New("socket closed"), http.StatusInternalServerError, "Failed to book demo", "Failed to fetch demos"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(failingService{err: tc.err}, connected())

			w := do(r, http.MethodPost, "/api/book-demo", valid)
			require.Equal(t, tc.code, w.Code)
			require.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.bookMsg), w.Body.String())

			w = do(r, http.MethodGet, "/api/demos", "")
			require.Equal(t, tc.code, w.Code)
			require.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.listMsg), w.Body.String())
		})
	}
}

func TestValidationRunsBeforePersistence(t *testing.T) {
	r := newTestRouter(failingService{err: database.ErrNotConnected}, connected())

	w := do(r, http.MethodPost, "/api/book-demo", `{"name":"Bob","email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	status := &fakeStatus{st: database.Status{State: database.StateDisconnected}}
	r := newTestRouter(service.NewMemoryService(), status)

	var body struct {
		Status      string `json:"status"`
		Timestamp   string `json:"timestamp"`
		MongoDB     string `json:"mongodb"`
		Environment string `json:"environment"`
	}
	w := do(r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "disconnected", body.MongoDB)
	require.Equal(t, "test", body.Environment)
	ts, err := time.Parse(time.RFC3339, body.Timestamp)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), ts, time.Minute)
	require.True(t, strings.HasSuffix(body.Timestamp, "Z"))

	status.st.State = database.StateConnected
	w = do(r, http.MethodGet, "/api/health", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "connected", body.MongoDB)
}

func TestReady(t *testing.T) {
	status := &fakeStatus{st: database.Status{State: database.StateDisconnected, RetriesExhausted: true}}
	r := newTestRouter(service.NewMemoryService(), status)

	w := do(r, http.MethodGet, "/api/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, `{"status":"not_ready","mongodb":"disconnected","retriesExhausted":true}`, w.Body.String())

	status.st = database.Status{State: database.StateConnected}
	w = do(r, http.MethodGet, "/api/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ready","mongodb":"connected"}`, w.Body.String())
}

func TestRoot(t *testing.T) {
	r := newTestRouter(service.NewMemoryService(), connected())

	w := do(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{
		"message": "Welcome to A2 Developers API",
		"version": "1.0.0",
		"endpoints": {"root": "/", "health": "/api/health", "bookDemo": "/api/book-demo", "listDemos": "/api/demos"}
	}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	r := newTestRouter(service.NewMemoryService(), connected())

	w := do(r, http.MethodGet, "/unknown-route", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	require.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestPanicRecovery(t *testing.T) {
	r := newTestRouter(service.NewMemoryService(), connected())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(service.NewMemoryService(), connected())

	req := httptest.NewRequest(http.MethodOptions, "/api/book-demo", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminAuthProtectsListing(t *testing.T) {
	r := NewRouter(RouterOptions{
		Demos:         service.NewMemoryService(),
		Status:        connected(),
		AdminVerifier: staticVerifier{},
	})

	w := do(r, http.MethodGet, "/api/demos", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/demos", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"count":0,"demos":[]}`, w.Body.String())

	// booking stays public
	w = do(r, http.MethodPost, "/api/book-demo", `{"name":"Jane","email":"jane@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestBookLimiter(t *testing.T) {
	r := NewRouter(RouterOptions{
		Demos:       service.NewMemoryService(),
		Status:      connected(),
		BookLimiter: middleware.RateLimitMiddleware(0.01, 1),
	})

	body := `{"name":"Jane","email":"jane@x.com"}`
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/book-demo", body).Code)
	w := do(r, http.MethodPost, "/api/book-demo", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"error":"Rate limit exceeded"}`, w.Body.String())

	// reads are not limited
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/demos", "").Code)
}

func TestBookLimiter_CountsRejectedSubmissions(t *testing.T) {
	r := NewRouter(RouterOptions{
		Demos:       service.NewMemoryService(),
		Status:      connected(),
		BookLimiter: middleware.RateLimitMiddleware(0.01, 1),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/book-demo", strings.NewReader("name=Jane"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = do(r, http.MethodPost, "/api/book-demo", `{"name":"Jane","email":"jane@x.com"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"}))
	r := NewRouter(RouterOptions{
		Demos:   service.NewMemoryService(),
		Status:  connected(),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "probe_total")
}
