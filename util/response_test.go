package util

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/require"
)

func TestNewServerResponse(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	err := render.Render(w, r, NewServerResponse("ok", map[string]int{"tables": 2}, http.StatusAccepted))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, w.Code)

	var body ServerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Status)
	require.Equal(t, "ok", body.Message)
	require.JSONEq(t, `{"tables":2}`, string(body.Data))
}

func TestNewErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	require.NoError(t, render.Render(w, r, NewErrorResponse("nope", http.StatusServiceUnavailable)))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, `{"status":false,"message":"nope"}`, w.Body.String())
}
