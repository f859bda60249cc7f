package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       ErrorBody
		want       string
	}{
		{
			name:       "bad request",
			statusCode: http.StatusBadRequest,
			body:       ErrorBody{Error: "bad_request", Message: "invalid input"},
			want:       `{"error":"bad_request","message":"invalid input"}`,
		},
		{
			name:       "unavailable",
			statusCode: http.StatusServiceUnavailable,
			body:       ErrorBody{Error: "datasource_unavailable", Message: "datasource is not reachable", Datasource: "mssql"},
			want:       `{"error":"datasource_unavailable","message":"datasource is not reachable","datasource":"mssql"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, WriteError(w, tt.statusCode, tt.body))

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, w.Body.String())

			var got ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.body, got)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteJSON(w, http.StatusCreated, map[string]int{"count": 2}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"count":2}`, w.Body.String())
}
