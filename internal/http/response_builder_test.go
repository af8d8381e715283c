package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusAccepted).
		Data(map[string]string{"id": "abc"}).
		NotifySuccess("saved").
		Header("Location", "/api/subscriptions").
		Write(w)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "/api/subscriptions", w.Header().Get("Location"))

	body := decodeEnvelope(t, w)
	assert.Equal(t, "abc", body["data"].(map[string]any)["id"])
	n := body["notification"].(map[string]any)
	assert.Equal(t, "success", n["type"])
	assert.Equal(t, "saved", n["message"])
	assert.EqualValues(t, 3000, n["duration"])
	assert.NotContains(t, body, "error")
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name string
		b    *JSONResponseBuilder
		want int
	}{
		{"bad request", BadRequestError("x"), http.StatusBadRequest},
		{"unauthorized", UnauthorizedError("x"), http.StatusUnauthorized},
		{"unprocessable", UnprocessableEntityError("x"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("x"), http.StatusNotFound},
		{"internal", InternalServerError("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.b.Write(w)
			assert.Equal(t, tt.want, w.Code)
			body := decodeEnvelope(t, w)
			assert.Equal(t, "x", body["error"])
			assert.Equal(t, "error", body["notification"].(map[string]any)["type"])
		})
	}
}
