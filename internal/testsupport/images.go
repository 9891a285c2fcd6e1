package testsupport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// PNG returns a small solid-colour PNG.
func PNG(t testing.TB) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 0xc0, G: 0x80, B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// ImageServer is a fake OpenAI-compatible image endpoint. Use URL+"/v1" as
// the client base URL.
type ImageServer struct {
	*httptest.Server

	mu      sync.Mutex
	image   []byte
	prompts []string
	status  int
}

// NewImageServer starts a fake image API that answers every generation with
// img encoded as b64_json.
func NewImageServer(t testing.TB, img []byte) *ImageServer {
	t.Helper()

	s := &ImageServer{image: img}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the OpenAI-style base URL for the fake server.
func (s *ImageServer) BaseURL() string {
	return s.URL + "/v1"
}

// FailWith makes every subsequent request return status.
func (s *ImageServer) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Prompts returns the prompts received so far.
func (s *ImageServer) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *ImageServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": http.StatusText(status), "type": "server_error"},
		})
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/images/generations"):
		var req struct {
			Prompt         string `json:"prompt"`
			ResponseFormat string `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.prompts = append(s.prompts, req.Prompt)
		s.mu.Unlock()
		writeFixtureJSON(w, map[string]any{
			"created": 1,
			"data": []map[string]any{
				{"b64_json": base64.StdEncoding.EncodeToString(s.image)},
			},
		})
	case strings.HasSuffix(r.URL.Path, "/models"):
		writeFixtureJSON(w, map[string]any{"object": "list", "data": []any{}})
	default:
		http.NotFound(w, r)
	}
}
