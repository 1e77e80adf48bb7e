package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/laptopstore/internal/config"
	"github.com/utafrali/laptopstore/internal/domain"
	"github.com/utafrali/laptopstore/pkg/logger"
)

// storeAPI is an in-memory stand-in for the remote store API.
type storeAPI struct {
	mu       sync.Mutex
	token    string
	revoked  bool
	lines    map[string]map[string]any
	wishlist map[string]bool
	nextID   int
	upserts  int
}

func (s *storeAPI) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

func newStoreAPI() *storeAPI {
	return &storeAPI{
		token:    "tok-ana",
		lines:    map[string]map[string]any{},
		wishlist: map[string]bool{},
	}
}

func (s *storeAPI) authorized(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.revoked && r.Header.Get("Authorization") == "Bearer "+s.token
}

func (s *storeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	guard := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !s.authorized(r) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /users/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("username") != "ana@example.com" || r.PostForm.Get("password") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		reply(w, map[string]string{"access_token": s.token, "token_type": "bearer"})
	})
	mux.HandleFunc("GET /users/auth", guard(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"id": 7, "email": "ana@example.com", "first_name": "Ana", "last_name": "Lima"})
	}))
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"id": r.PathValue("id"), "name": "Legion 5", "price": 1499, "rental_price": 89})
	})
	mux.HandleFunc("GET /cart", guard(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		items := make([]map[string]any, 0, len(s.lines))
		for _, l := range s.lines {
			items = append(items, l)
		}
		reply(w, items)
	}))
	mux.HandleFunc("GET /cart/count", guard(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		n := 0
		for _, l := range s.lines {
			n += l["quantity"].(int)
		}
		reply(w, map[string]int{"count": n})
	}))
	mux.HandleFunc("POST /cart/", guard(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
			Type      string `json:"type"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.upserts++
		if l, ok := s.lines[body.ProductID]; ok {
			l["quantity"] = body.Quantity
		} else {
			s.nextID++
			s.lines[body.ProductID] = map[string]any{
				"id": s.nextID, "product_id": body.ProductID, "quantity": body.Quantity, "type": body.Type,
			}
		}
		reply(w, map[string]string{"status": "ok"})
	}))
	mux.HandleFunc("GET /wishlist/wishlist", guard(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := []map[string]string{}
		for id := range s.wishlist {
			list = append(list, map[string]string{"product_id": id})
		}
		reply(w, map[string]any{"wishlist": list})
	}))
	mux.HandleFunc("GET /wishlist/wishlist/count", guard(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		reply(w, map[string]int{"total_wishlist_items": len(s.wishlist)})
	}))
	mux.HandleFunc("POST /wishlist/wishlist/{id}", guard(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.wishlist[r.PathValue("id")] = true
		reply(w, map[string]string{"status": "ok"})
	}))
	return mux
}

func testConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:       "test",
		APIBaseURL:        apiURL,
		APITimeout:        2 * time.Second,
		APIMaxRetries:     0,
		StoreDriver:       config.DriverSQLite,
		StorePath:         filepath.Join(t.TempDir(), "storefront.db"),
		StoreNamespace:    "storefront",
		HTTPPort:          8090,
		LoginRoute:        "/login",
		CORSOrigins:       []string{"http://localhost:3000"},
		NoticeTTL:         time.Minute,
		MergeGuestOnLogin: true,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := NewApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	return a
}

func call(t *testing.T, a *App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	var env map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func data(env map[string]any) map[string]any {
	d, _ := env["data"].(map[string]any)
	return d
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"memory", func(c *config.Config) { c.StoreDriver = config.DriverMemory }},
		{"sqlite", func(c *config.Config) {}},
		{"redis", func(c *config.Config) { c.StoreDriver = config.DriverRedis; c.RedisAddr = mr.Addr() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, "http://localhost:8000")
			tt.mutate(cfg)

			b, err := OpenBackend(ctx, cfg)
			require.NoError(t, err)
			defer b.Close()

			require.NoError(t, b.Set(ctx, "k", []byte("v")))
			got, ok, err := b.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", string(got))
		})
	}

	_, err := OpenBackend(ctx, &config.Config{StoreDriver: "etcd"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t, "http://localhost:8000")
	cfg.StoreDriver = config.DriverRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := NewApp(context.Background(), cfg, logger.Discard())
	assert.ErrorContains(t, err, "connect to redis")
}

func TestApp_GuestToAccountJourney(t *testing.T) {
	api := newStoreAPI()
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	a := newTestApp(t, cfg)
	a.Restore(context.Background())
	assert.Equal(t, domain.StatusUnauthenticated, a.Session.Snapshot().Status)

	// Guest browsing: two adds of the same laptop and a heart.
	for range 2 {
		code, _ := call(t, a, http.MethodPost, "/api/v1/cart/items", `{"product_id":"12"}`)
		require.Equal(t, http.StatusOK, code)
	}
	code, env := call(t, a, http.MethodPost, "/api/v1/wishlist/12/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, data(env)["member"])
	assert.Equal(t, 2, a.Cart.Count())

	// Signing in moves the guest collections to the account.
	code, env = call(t, a, http.MethodPost, "/api/v1/session/login", `{"username":"ana@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, code, env)
	assert.Equal(t, "authenticated", data(env)["status"])
	assert.EqualValues(t, 2, data(env)["cart_count"])
	assert.EqualValues(t, 1, data(env)["wishlist_count"])
	assert.Equal(t, 1, api.upsertCount())
	assert.Empty(t, a.Store.LoadGuestCart(context.Background()).Items)

	// The account path now owns mutations.
	code, _ = call(t, a, http.MethodPost, "/api/v1/cart/items", `{"product_id":"12"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, a.Cart.Count())

	// A fresh process restores the cached identity without asking the API.
	api.mu.Lock()
	api.token = "tok-other"
	api.mu.Unlock()
	a2 := newTestApp(t, cfg)
	require.NoError(t, a2.Session.Initialize(context.Background()))
	snap := a2.Session.Snapshot()
	assert.Equal(t, domain.StatusAuthenticated, snap.Status)
	assert.Equal(t, "7", snap.UserID())
	assert.Equal(t, "Ana Lima", snap.User.FullName)
}

func TestApp_RevokedTokenExpiresSession(t *testing.T) {
	api := newStoreAPI()
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	a := newTestApp(t, testConfig(t, srv.URL))
	_, err := a.Session.Login(context.Background(), "ana@example.com", "s3cret")
	require.NoError(t, err)

	api.mu.Lock()
	api.revoked = true
	api.mu.Unlock()

	code, env := call(t, a, http.MethodPost, "/api/v1/cart/items", `{"product_id":"12"}`)
	require.Equal(t, http.StatusUnauthorized, code)
	errBody := env["error"].(map[string]any)
	assert.Equal(t, "/login", errBody["redirect"])

	assert.Equal(t, domain.StatusUnauthenticated, a.Session.Snapshot().Status)
	assert.Empty(t, a.Store.LoadToken(context.Background()))
	assert.Empty(t, a.Notices.List())
}

func TestApp_Health(t *testing.T) {
	a := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))

	code, _ := call(t, a, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.StoreDriver = config.DriverMemory
	cfg.HTTPPort = freePort(t)
	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health/live", cfg.HTTPPort))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l := httptest.NewServer(http.NotFoundHandler())
	defer l.Close()
	var port int
	_, err := fmt.Sscanf(l.Listener.Addr().String(), "127.0.0.1:%d", &port)
	require.NoError(t, err)
	return port
}
