package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureWriterWithinLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 64}

	n, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.False(t, cw.truncated)
	assert.Equal(t, "hello", cw.buf.String())
	assert.Equal(t, "hello", rec.Body.String())
}

func TestCaptureWriterMarksOversizedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	body := strings.Repeat("x", 25)
	_, err := cw.Write([]byte(body[:8]))
	require.NoError(t, err)
	_, err = cw.Write([]byte(body[8:]))
	require.NoError(t, err)

	// The client still receives the full body; only the capture is cut
	// short, and the truncation flag keeps it out of the store.
	assert.Equal(t, body, rec.Body.String())
	assert.True(t, cw.truncated)
	assert.Equal(t, 10, cw.buf.Len())
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, _, _, ok := decodePayload([]byte("short"))
	assert.False(t, ok)

	payload, err := encodePayload(http.StatusOK, http.Header{"X-Cache": {"MISS"}}, []byte(`{"items":[]}`))
	require.NoError(t, err)
	status, hdr, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "MISS", hdr.Get("X-Cache"))
	assert.Equal(t, `{"items":[]}`, string(body))
}
