package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-market/identity/internal/http/middleware"
)

// asAccount pretends the JWT middleware authenticated accountID
func asAccount(accountID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if accountID != 0 {
			c.Set(middleware.ContextAccountID, accountID)
		}
		c.Next()
	}
}

func newTestRouter(accountID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asAccount(accountID))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func dataOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "expected data object in %v", body)
	return data
}
