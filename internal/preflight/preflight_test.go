package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckReachableOrigin(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.UserAgent()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{UserAgent: "profscraper-test"}, zap.NewNop())

	require.NoError(t, c.Check(context.Background(), srv.URL))
	assert.Equal(t, "profscraper-test", gotAgent)
}

func TestCheckRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{}, zap.NewNop())

	require.Error(t, c.Check(context.Background(), srv.URL))
}

func TestCheckRejectsDeadOrigin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(Config{}, zap.NewNop())

	require.Error(t, c.Check(context.Background(), srv.URL))
}
