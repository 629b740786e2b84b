package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name        string
		data        any
		expectLog   bool
		expectedOut string
	}{
		{
			name:        "Encodes body",
			data:        map[string]string{"status": "ok"},
			expectedOut: `{"status":"ok"}`,
		},
		{
			name:      "Encode failure is logged",
			data:      map[string]any{"bad": make(chan int)},
			expectLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			w := httptest.NewRecorder()

			writeJSON(w, http.StatusOK, tt.data, logger)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if !tt.expectLog {
				assert.JSONEq(t, tt.expectedOut, w.Body.String())
				assert.Empty(t, buf.String())
				return
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "error", entry["level"])
			assert.Equal(t, "failed to encode response", entry["message"])
			assert.NotEmpty(t, entry["error"])
		})
	}
}
