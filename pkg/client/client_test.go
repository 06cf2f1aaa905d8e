package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homegrid/internal/domain"
)

func TestLoginCapturesToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/auth/login", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":  domain.User{UserID: "u1", Username: "alice"},
			"token": "issued-token",
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	user, err := c.Login(context.Background(), "alice", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
	assert.Equal(t, "issued-token", c.Token())
}

func TestClientSendsTokenCookie(t *testing.T) {
	var gotCookie string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("token"); err == nil {
			gotCookie = cookie.Value
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"chats": []domain.Chat{}})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.SetToken("session-token")
	_, err := c.ListChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-token", gotCookie)
}

func TestClientMapsStatusToDomainErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusBadRequest, domain.ErrInvalidInput},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusConflict, domain.ErrConflict},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
		}))

		c := NewClient(ts.URL)
		_, err := c.GetChat(context.Background(), "c1")
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
		assert.Contains(t, err.Error(), "nope")
		ts.Close()
	}
}

func TestClientServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.GetChat(context.Background(), "c1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
