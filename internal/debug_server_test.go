package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusHandler(t *testing.T) {
	req := require.New(t)
	handler := StatusHandler(func() map[string]any { return map[string]any{"Active rooms": 2, "Refused": 7} })

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "Active rooms")
	req.Regexp(`(?s)Active rooms.*2`, body)
	req.Contains(body, "Refused")
}

func TestStatusHandler_NoStats(t *testing.T) {
	req := require.New(t)

	rec := httptest.NewRecorder()
	StatusHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), "tempest relay")
}
