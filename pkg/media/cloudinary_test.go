package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahfidz-app/tahfidz-api/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.MediaConfig{CloudName: "demo", UploadPreset: "audio_upload"}).WithBaseURL(server.URL)
}

func TestUploadAudioReturnsSecureURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/video/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "audio_upload", r.FormValue("upload_preset"))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example.com/a.m4a","public_id":"a","resource_type":"video"}`))
	})

	url, err := client.UploadAudio(context.Background(), strings.NewReader("audio-bytes"), "rec.m4a")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.m4a", url)
}

func TestUploadAudioSurfacesHostError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	})

	_, err := client.UploadAudio(context.Background(), strings.NewReader("audio-bytes"), "rec.m4a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestUploadAudioRequiresConfiguration(t *testing.T) {
	client := NewClient(config.MediaConfig{})
	_, err := client.UploadAudio(context.Background(), strings.NewReader("x"), "rec.m4a")
	require.Error(t, err)
}
