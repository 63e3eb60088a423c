package speech_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vargava/xr-emcee-demo/pkg/speech"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestElevenLabsTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speech-to-text" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("xi-api-key = %q, want %q", got, "test-key")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm() error: %v", err)
		}
		if got := r.FormValue("model_id"); got != "scribe_v1" {
			t.Errorf("model_id = %q, want %q", got, "scribe_v1")
		}
		if got := r.FormValue("language_code"); got != "eng" {
			t.Errorf("language_code = %q, want %q", got, "eng")
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error: %v", err)
		}
		defer file.Close()
		if header.Filename != "audio.webm" {
			t.Errorf("filename = %q, want %q", header.Filename, "audio.webm")
		}
		data, _ := io.ReadAll(file)
		if string(data) != "FAKEAUDIO" {
			t.Errorf("uploaded audio = %q, want %q", data, "FAKEAUDIO")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"language_code": "eng",
			"text":          "  Hello there.  ",
		})
	}))
	defer srv.Close()

	c := speech.NewElevenLabs("test-key", speech.WithBaseURL(srv.URL))
	text, err := c.Transcribe(context.Background(), []byte("FAKEAUDIO"), "audio/webm")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if text != "Hello there." {
		t.Errorf("Transcribe() = %q, want %q", text, "Hello there.")
	}
}

func TestElevenLabsTranscribeEmptyAudio(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := speech.NewElevenLabs("test-key", speech.WithBaseURL(srv.URL))
	text, err := c.Transcribe(context.Background(), nil, "audio/wav")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if text != "" {
		t.Errorf("Transcribe() = %q, want empty", text)
	}
	if hits != 0 {
		t.Errorf("server hits = %d, want 0", hits)
	}
}

func TestElevenLabsTranscribeDegradesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]string{"status": "server_error", "message": "try later"},
		})
	}))
	defer srv.Close()

	c := speech.NewElevenLabs("test-key",
		speech.WithBaseURL(srv.URL), speech.WithLogger(quietLogger()))
	text, err := c.Transcribe(context.Background(), []byte("FAKEAUDIO"), "audio/wav")
	if err != nil {
		t.Fatalf("Transcribe() error: %v, want degraded nil", err)
	}
	if text != "" {
		t.Errorf("Transcribe() = %q, want empty on API failure", text)
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/"+speech.DefaultVoiceID {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("output_format = %q, want %q", got, "mp3_44100_128")
		}
		var req struct {
			Text    string `json:"text"`
			ModelID string `json:"model_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "Ahoy there!" {
			t.Errorf("text = %q, want %q", req.Text, "Ahoy there!")
		}
		if req.ModelID != "eleven_multilingual_v2" {
			t.Errorf("model_id = %q, want %q", req.ModelID, "eleven_multilingual_v2")
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("MP3DATA"))
	}))
	defer srv.Close()

	c := speech.NewElevenLabs("test-key", speech.WithBaseURL(srv.URL))
	audio, err := c.Synthesize(context.Background(), "Ahoy there!")
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if string(audio) != "MP3DATA" {
		t.Errorf("Synthesize() = %q, want %q", audio, "MP3DATA")
	}
}

func TestElevenLabsSynthesizeCustomVoice(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("MP3DATA"))
	}))
	defer srv.Close()

	c := speech.NewElevenLabs("test-key",
		speech.WithBaseURL(srv.URL), speech.WithVoice("pirate-voice"))
	if _, err := c.Synthesize(context.Background(), "Arr!"); err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if gotPath != "/v1/text-to-speech/pirate-voice" {
		t.Errorf("path = %q, want %q", gotPath, "/v1/text-to-speech/pirate-voice")
	}
}

func TestElevenLabsSynthesizeDegradesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"detail": "invalid api key"})
	}))
	defer srv.Close()

	c := speech.NewElevenLabs("bad-key",
		speech.WithBaseURL(srv.URL), speech.WithLogger(quietLogger()))
	audio, err := c.Synthesize(context.Background(), "Ahoy!")
	if err != nil {
		t.Fatalf("Synthesize() error: %v, want degraded nil", err)
	}
	if audio != nil {
		t.Errorf("Synthesize() = %q, want nil on API failure", audio)
	}
}

func TestElevenLabsSynthesizeEmptyText(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := speech.NewElevenLabs("test-key", speech.WithBaseURL(srv.URL))
	audio, err := c.Synthesize(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if audio != nil || hits != 0 {
		t.Errorf("Synthesize(blank) = %q with %d server hits, want nil and 0", audio, hits)
	}
}

func TestDisabled(t *testing.T) {
	var d speech.Disabled

	text, err := d.Transcribe(context.Background(), []byte("audio"), "audio/wav")
	if err != nil || text != "" {
		t.Errorf("Transcribe() = %q, %v, want empty, nil", text, err)
	}
	audio, err := d.Synthesize(context.Background(), "hello")
	if err != nil || audio != nil {
		t.Errorf("Synthesize() = %q, %v, want nil, nil", audio, err)
	}
}
