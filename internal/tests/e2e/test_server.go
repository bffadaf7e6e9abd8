package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/app"
	"github.com/gemstone-market/identity/internal/logging"
	testconfig "github.com/gemstone-market/identity/internal/tests/config"
)

// TestServer runs the full application container behind httptest
type TestServer struct {
	t         *testing.T
	Container *app.Container
	Redis     *miniredis.Miniredis
	Server    *httptest.Server
}

// NewTestServer wires a fresh container with isolated sqlite and redis state
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	cfg := testconfig.LoadTestConfig(t, mr.Addr())

	c, err := app.NewContainer(context.Background(), cfg, logging.New("error", "json"))
	require.NoError(t, err)

	srv := httptest.NewServer(c.Handler())
	t.Cleanup(func() {
		srv.Close()
		c.Close()
	})
	return &TestServer{t: t, Container: c, Redis: mr, Server: srv}
}

// Do sends a JSON request and decodes the JSON response body
func (s *TestServer) Do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.Server.URL+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp.StatusCode, decoded
}

// Data returns the "data" envelope of a successful response
func Data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "expected data object in %v", body)
	return data
}

// OutstandingToken reads the newest unused token straight from the store, since
// delivery goes to the log mailer.
func (s *TestServer) OutstandingToken(email string, purpose domain.TokenPurpose) string {
	s.t.Helper()
	ctx := context.Background()

	account, err := s.Container.Store.Accounts().FindByEmail(ctx, email)
	require.NoError(s.t, err)

	tokens, err := s.Container.Store.VerificationTokens().ListOutstanding(ctx, account.ID, purpose, time.Now().UTC())
	require.NoError(s.t, err)
	require.NotEmpty(s.t, tokens)
	return tokens[len(tokens)-1].Token
}
