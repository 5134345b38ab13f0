package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func logOneRequest(t *testing.T, target string, header http.Header) string {
	t.Helper()

	var buf bytes.Buffer
	handler := Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return buf.String()
}

func TestLogger_IncludesSessionHandle(t *testing.T) {
	req := require.New(t)

	line := logOneRequest(t, "/messages", http.Header{
		sessionHeader: []string{"8d54a3c2-5b0f-41f9-9b1a-2f60e0a7c9d1"},
	})
	req.Contains(line, `"session":"8d54a3c2-5b0f-41f9-9b1a-2f60e0a7c9d1"`)
	req.Contains(line, `"request completed"`)
	req.Contains(line, `"path":"/messages"`)
}

func TestLogger_OmitsSessionWhenAbsent(t *testing.T) {
	line := logOneRequest(t, "/health", nil)
	require.NotContains(t, line, `"session"`)
}

func TestLogger_EventStreamClose(t *testing.T) {
	line := logOneRequest(t, "/events", nil)
	require.Contains(t, line, `"event stream closed"`)
}
