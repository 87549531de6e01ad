package sessions_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/care"
	"github.com/wellmind/care-service/internal/config"
	kvmemory "github.com/wellmind/care-service/internal/plugin/kv/memory"
	"github.com/wellmind/care-service/internal/plugin/route/sessions"
	"github.com/wellmind/care-service/internal/security"
)

func setupRouter(t *testing.T) (*gin.Engine, *care.Store) {
	t.Helper()
	store := care.New(kvmemory.New(), care.WithClock(func() time.Time {
		return time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	}))

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeTesting

	gin.SetMode(gin.TestMode)
	router := gin.New()
	sessions.MountRoutes(router, store, security.AuthMiddleware(&cfg, store.ResolveToken))
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions", "t1", gin.H{
		"therapistId": "t1",
		"clientId":    "c1",
		"date":        "2025-03-14",
		"time":        "10:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "pending", created.Status)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/"+created.ID, "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions?as=therapist", "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), created.ID)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions", "c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), created.ID)

	w = doJSON(t, router, http.MethodPatch, "/v1/sessions/"+created.ID, "t1", gin.H{"date": "2025-03-21"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "2025-03-21")

	// The old-date listing is empty after the move.
	w = doJSON(t, router, http.MethodGet, "/v1/sessions?as=therapist&date=2025-03-14", "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), created.ID)

	w = doJSON(t, router, http.MethodDelete, "/v1/sessions/"+created.ID, "t1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/"+created.ID, "t1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "not_found")
}

func TestCreateSession_ValidationError(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions", "c1", gin.H{
		"therapistId": "t1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "validation_error")
	require.Contains(t, w.Body.String(), "date")
}

func TestRepairEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions", "t1", gin.H{
		"therapistId": "t1",
		"clientId":    "c1",
		"date":        "2025-03-14",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPost, "/v1/repair", "t1", gin.H{"kind": "session", "id": created.ID})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "repaired")

	w = doJSON(t, router, http.MethodPost, "/v1/repair", "t1", gin.H{"kind": "widget", "id": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessions_RequireAuth(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
