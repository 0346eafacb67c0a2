package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"walldl/pkg/errors"
	"walldl/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func TestGetPage(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>catalog</html>"))
	}))
	defer server.Close()

	log := logger.NewTestLogger()
	client := NewClient("walldl-test/1.0", 5*time.Second, log)

	body, err := client.GetPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>catalog</html>", string(body))
	assert.Equal(t, "walldl-test/1.0", gotUA)

	assert.True(t, log.HasMessage("sending HTTP request"))
	assert.True(t, log.HasMessage("HTTP request completed"))
}

func TestStreamStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
		{"forbidden", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient("walldl-test", 0, logger.NewNopLogger())
			resp, err := client.Stream(context.Background(), server.URL)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, errors.ErrorTypeHTTPStatus, errors.TypeOf(err))

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.status, e.Code)
		})
	}
}

func TestStreamLeavesBodyOpen(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient("walldl-test", 0, logger.NewNopLogger())
	resp, err := client.Stream(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, got, len(payload))
}

func TestNetworkError(t *testing.T) {
	httpClient := &http.Client{Transport: &mockRoundTripper{
		handler: func(req *http.Request) (*http.Response, error) {
			return nil, io.ErrUnexpectedEOF
		},
	}}
	client := NewClientWithHTTP(httpClient, "walldl-test", logger.NewNopLogger())

	_, err := client.GetPage(context.Background(), "http://catalog.invalid/page")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("walldl-test", 0, logger.NewNopLogger())
	_, err := client.Stream(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
