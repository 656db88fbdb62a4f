package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/orally-backend/internal/config"
	"github.com/AnshRaj112/orally-backend/internal/models"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:    "development",
		StoreDriver:    config.DriverMemory,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

func TestOpen_MemoryWithHeaderAuth(t *testing.T) {
	a, err := Open(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Sessions)
	assert.NotEmpty(t, a.Tips.Tips())

	router, err := a.Router()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/engagement", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"streak":1`)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreDriver = "sqlite"
	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "sqlite")
}

func TestOpen_ProductionRequiresRedis(t *testing.T) {
	cfg := memoryConfig()
	cfg.Environment = "production"
	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Router()
	assert.Error(t, err)
}

func TestOpen_SessionsAndTipsFile(t *testing.T) {
	mr := miniredis.RunT(t)
	path := filepath.Join(t.TempDir(), "tips.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tips:\n  - only tip\n"), 0o644))

	cfg := memoryConfig()
	cfg.RedisURI = "redis://" + mr.Addr() + "/0"
	cfg.TipsFile = path
	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Sessions)
	assert.Equal(t, []string{"only tip"}, a.Tips.Tips())

	token, err := a.Sessions.CreateSession(context.Background(), models.Identity{UserID: "u1", DisplayName: models.Ptr("Ada")})
	require.NoError(t, err)

	router, err := a.Router()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/engagement", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tip":"only tip"`)
	assert.Contains(t, rec.Body.String(), `"display_name":"Ada"`)

	// Header identities are ignored once sessions are configured.
	req = httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("X-User-ID", "u1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClose_Twice(t *testing.T) {
	a, err := Open(context.Background(), memoryConfig())
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.NotPanics(t, func() { a.Close() })
}

func TestNewLogger(t *testing.T) {
	var b strings.Builder
	cfg := memoryConfig()
	cfg.Environment = "production"
	NewLogger(cfg, &b).Info("hello", "k", 1)
	assert.True(t, strings.HasPrefix(b.String(), "{"))
}

func TestRouter_InvalidTrustedProxies(t *testing.T) {
	cfg := memoryConfig()
	cfg.TrustedProxies = []string{"10.0.0.0/99"}
	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Router()
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}
