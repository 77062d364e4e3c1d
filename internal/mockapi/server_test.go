package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/siccprobe/internal/config"
	"github.com/jmylchreest/siccprobe/internal/observability"
)

func newTestServer(t *testing.T, cookieOnly bool) *httptest.Server {
	t.Helper()
	srv := NewServer(config.MockConfig{
		Host:       "127.0.0.1",
		Port:       8080,
		CookieOnly: cookieOnly,
		SeedItems:  15,
	}, observability.Discard())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func register(t *testing.T, base, email string) (*http.Response, map[string]any) {
	t.Helper()
	return doJSON(t, http.MethodPost, base+"/api/auth/register", "", map[string]string{
		"firstname": "Juan",
		"lastname":  "Pérez",
		"email":     email,
		"password":  "password123",
	})
}

func accessCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == AccessTokenCookie {
			return c
		}
	}
	return nil
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, false)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/actuator/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "UP", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServer_RegisterLoginFlow(t *testing.T) {
	ts := newTestServer(t, false)

	resp, body := register(t, ts.URL, "juan_1@example.com")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "juan_1@example.com", body["email"])

	cookie := accessCookie(resp)
	require.NotNil(t, cookie)
	assert.Equal(t, token, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	resp, _ = register(t, ts.URL, "juan_1@example.com")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{
		"email": "juan_1@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{
		"email": "juan_1@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "juan_1@example.com", body["email"])
	assert.Equal(t, "Pérez", body["lastname"])
	assert.Equal(t, RoleUser, body["role"])
}

func TestServer_CookieOnly(t *testing.T) {
	ts := newTestServer(t, true)

	resp, body := register(t, ts.URL, "cookie@example.com")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "token")

	cookie := accessCookie(resp)
	require.NotNil(t, cookie)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL+"/api/users/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: cookie.Value})
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	me.Body.Close()
	assert.Equal(t, http.StatusOK, me.StatusCode)
}

func TestServer_RejectsBadTokens(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name  string
		token string
	}{
		{name: "invalid token", token: "invalid_token"},
		{name: "no token", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/patients", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestServer_PagedLists(t *testing.T) {
	ts := newTestServer(t, false)
	_, body := register(t, ts.URL, "lists@example.com")
	token := body["token"].(string)

	for _, path := range []string{
		"/api/patients", "/api/consultations", "/api/prescriptions",
		"/api/healthcareprofessionals", "/api/healthcare-professionals",
		"/api/medications", "/api/cie10",
	} {
		t.Run(path, func(t *testing.T) {
			resp, page := doJSON(t, http.MethodGet, ts.URL+path+"?page=0&size=10", token, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.EqualValues(t, 15, page["totalElements"])
			assert.Len(t, page["content"], 10)
		})
	}

	resp, page := doJSON(t, http.MethodGet, ts.URL+"/api/patients?page=1&size=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, page["content"], 5)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/patients?size=0", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_PharmaceuticalFormsArray(t *testing.T) {
	ts := newTestServer(t, false)
	_, body := register(t, ts.URL, "forms@example.com")
	token := body["token"].(string)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL+"/api/pharmaceutical-forms", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	assert.Len(t, items, 5)
}

func TestServer_DashboardAndLogout(t *testing.T) {
	ts := newTestServer(t, false)
	_, body := register(t, ts.URL, "dash@example.com")
	token := body["token"].(string)

	resp, stats := doJSON(t, http.MethodGet, ts.URL+"/api/stats/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 15, stats["totalPatients"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	cleared := accessCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	srv := NewServer(config.MockConfig{
		Host:            "127.0.0.1",
		Port:            18089,
		ShutdownTimeout: time.Second,
	}, observability.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
