package sicc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/siccprobe/internal/observability"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL + "/", Logger: observability.Discard()})
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:8080/"})
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
	assert.Equal(t, DefaultHealthTimeout, c.healthTimeout)
	assert.Equal(t, DefaultRequestTimeout, c.requestTimeout)
	assert.NotNil(t, c.http)
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, HealthPath, r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"UP"}`))
	})

	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, `{"status":"UP"}`, resp.Text())
}

func TestClient_HealthTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, HealthTimeout: 20 * time.Millisecond, Logger: observability.Discard()})
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Register(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, RegisterPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body RegisterRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Pérez", body.Lastname)

		w.Write([]byte(`{"token":"abc","email":"` + body.Email + `"}`))
	})

	resp, err := c.Register(context.Background(), RegisterRequest{
		Firstname: "Juan",
		Lastname:  "Pérez",
		Email:     "juan_123@example.com",
		Password:  "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.AuthToken())

	var auth AuthResponse
	require.NoError(t, resp.Decode(&auth))
	assert.Equal(t, "juan_123@example.com", auth.Email)
}

func TestClient_BearerHeader(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "token sets bearer", token: "abc", want: "Bearer abc"},
		{name: "empty token sends no header", token: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(r.Header.Get("Authorization")))
			})

			resp, err := c.Get(context.Background(), tt.token, "/api/patients")
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Text())
		})
	}
}

func TestClient_List(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/consultations", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		w.Write([]byte(`{"content":[],"totalElements":0}`))
	})

	resp, err := c.List(context.Background(), "tok", "/api/consultations", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "/api/consultations?page=0&size=10", resp.Path)
	assert.True(t, resp.OK())
}

func TestClient_CurrentUserAndLogout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CurrentUserPath:
			w.Write([]byte(`{"id":7,"email":"a@b.c","firstname":"Juan","lastname":"Pérez","role":"USER"}`))
		case LogoutPath:
			assert.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	resp, err := c.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	var user User
	require.NoError(t, resp.Decode(&user))
	assert.Equal(t, json.Number("7"), user.ID)
	assert.Equal(t, "USER", user.Role)

	resp, err = c.Logout(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := server.URL
	server.Close()

	c := New(Config{BaseURL: base, Logger: observability.Discard()})
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /actuator/health")
}

func TestListPath(t *testing.T) {
	assert.Equal(t, "/api/patients?page=0&size=10", ListPath("/api/patients", 0, 10))
	assert.Equal(t, "/api/cie10?page=2&size=5", ListPath("/api/cie10", 2, 5))
}
