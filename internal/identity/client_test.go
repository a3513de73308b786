package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"MemeArena/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.UpstreamConfig{BaseURL: srv.URL + "/", APIKey: "anon-key", Timeout: 2}, logrus.New())
}

func TestVerifyReturnsUserID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"7c1e2c8e-0000-4000-8000-000000000001","email":"a@b.c"}`))
	})

	id, err := c.Verify(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "7c1e2c8e-0000-4000-8000-000000000001", id)
}

func TestVerifyRejectsInvalidToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
	})

	_, err := c.Verify(context.Background(), "expired")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyUpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyEmptyToken(t *testing.T) {
	c := NewClient(config.UpstreamConfig{BaseURL: "http://127.0.0.1:1"}, logrus.New())
	_, err := c.Verify(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
