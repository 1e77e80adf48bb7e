package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/laptopstore/pkg/logger"
)

func pprofRouter(t *testing.T, cidrs []string) (*chi.Mux, bool) {
	t.Helper()
	r := chi.NewRouter()
	mounted := RegisterPprof(r, cidrs, logger.Discard())
	return r, mounted
}

func TestRegisterPprof_NothingMountedWithoutCIDRs(t *testing.T) {
	r, mounted := pprofRouter(t, nil)
	assert.False(t, mounted)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterPprof_InvalidCIDRsSkipped(t *testing.T) {
	_, mounted := pprofRouter(t, []string{"not-a-cidr"})
	assert.False(t, mounted)
}

func TestRegisterPprof_AllowedIP(t *testing.T) {
	r, mounted := pprofRouter(t, []string{"127.0.0.0/8"})
	require.True(t, mounted)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "127.0.0.1:51234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterPprof_DeniedIP(t *testing.T) {
	r, _ := pprofRouter(t, []string{"10.0.0.0/8"})

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "192.168.1.10:40000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}
