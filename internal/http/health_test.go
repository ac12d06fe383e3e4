package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthController_Status(t *testing.T) {
	getHealth := func(t *testing.T, controller *HealthController) (int, HealthResponse) {
		t.Helper()
		router := gin.New()
		router.GET("/health", controller.Status)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w.Code, resp
	}

	t.Run("healthy with a reachable database", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		code, resp := getHealth(t, NewHealthController(db, "1.0.0"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "1.0.0", resp.Version)
		assert.Equal(t, "ok", resp.Checks["database"])
	})

	t.Run("absent database is reported but not unhealthy", func(t *testing.T) {
		code, resp := getHealth(t, NewHealthController(nil, "1.0.0"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "not configured", resp.Checks["database"])
	})
}
