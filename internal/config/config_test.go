package config

import (
	"testing"
	"time"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
)

func TestDefaultManifest(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	if b.ComfyUI.BaseURL != "http://127.0.0.1:8188" {
		t.Errorf("BaseURL = %q, want local server", b.ComfyUI.BaseURL)
	}
	if b.ComfyUI.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", b.ComfyUI.PollInterval)
	}
	if b.ComfyUI.Timeout != 2*time.Hour {
		t.Errorf("Timeout = %v, want 2h", b.ComfyUI.Timeout)
	}
	if b.FPS != 25.0 {
		t.Errorf("FPS = %v, want 25", b.FPS)
	}
	if len(b.Subjects) != 2 {
		t.Fatalf("len(Subjects) = %d, want 2", len(b.Subjects))
	}
	if s := b.Subjects[0]; s.Name != "bainian4" || s.Width != 464 || s.Height != 832 || s.Face != "face_bainian4.png" {
		t.Errorf("Subjects[0] = %+v", s)
	}
	if len(b.AudioFiles) != 4 {
		t.Errorf("len(AudioFiles) = %d, want 4", len(b.AudioFiles))
	}
	if got := len(b.Items()); got != 8 {
		t.Errorf("len(Items()) = %d, want 8", got)
	}
	if len(b.ComfyUI.MediaKeys) != 1 || b.ComfyUI.MediaKeys[0] != "gifs" {
		t.Errorf("MediaKeys = %v, want [gifs]", b.ComfyUI.MediaKeys)
	}
}

func TestParseFillsDefaults(t *testing.T) {
	b, err := Parse([]byte(`
comfyui:
  base_url: http://gpu-box:8188/
subjects:
  - {name: x, frame: f.png, face: g.png, w: 100, h: 200}
audio_files: [a.wav]
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if b.ComfyUI.BaseURL != "http://gpu-box:8188" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", b.ComfyUI.BaseURL)
	}
	if b.ComfyUI.PollInterval != 10*time.Second || b.ComfyUI.Timeout != 2*time.Hour {
		t.Errorf("durations not defaulted: %+v", b.ComfyUI)
	}
	if b.ComfyUI.RequestTimeout != time.Minute {
		t.Errorf("RequestTimeout = %v, want 1m", b.ComfyUI.RequestTimeout)
	}
	if b.FPS != 25.0 {
		t.Errorf("FPS = %v, want 25", b.FPS)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "comfyui: [unclosed"},
		{"relative url", "comfyui: {base_url: localhost}\nsubjects: [{name: x, frame: f, face: g, w: 1, h: 1}]\naudio_files: [a.wav]"},
		{"no subjects", "comfyui: {base_url: 'http://h'}\naudio_files: [a.wav]"},
		{"no audio", "comfyui: {base_url: 'http://h'}\nsubjects: [{name: x, frame: f, face: g, w: 1, h: 1}]"},
		{"bad resolution", "comfyui: {base_url: 'http://h'}\nsubjects: [{name: x, frame: f, face: g, w: 0, h: 1}]\naudio_files: [a.wav]"},
		{"duplicate subject", "comfyui: {base_url: 'http://h'}\nsubjects: [{name: x, frame: f, face: g, w: 1, h: 1}, {name: x, frame: f, face: g, w: 1, h: 1}]\naudio_files: [a.wav]"},
		{"missing face", "comfyui: {base_url: 'http://h'}\nsubjects: [{name: x, frame: f, w: 1, h: 1}]\naudio_files: [a.wav]"},
		{"negative fps", "comfyui: {base_url: 'http://h'}\nfps: -1\nsubjects: [{name: x, frame: f, face: g, w: 1, h: 1}]\naudio_files: [a.wav]"},
		{"negative timeout", "comfyui: {base_url: 'http://h', timeout: -5s}\nsubjects: [{name: x, frame: f, face: g, w: 1, h: 1}]\naudio_files: [a.wav]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoadRuntimeDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "REDIS_ADDR", "LOCK_TTL", "STATUS_HTTP_ADDR"} {
		t.Setenv(k, "")
	}

	rt := LoadRuntime()
	if rt.DatabaseURL != "" || rt.RedisAddr != "" || rt.StatusAddr != "" {
		t.Errorf("expected optional integrations disabled, got %+v", rt)
	}
	if rt.LockTTL != 3*time.Hour {
		t.Errorf("LockTTL = %v, want 3h", rt.LockTTL)
	}
}

func TestLoadRuntimeFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://batch@localhost/batch")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOCK_TTL", "30m")
	t.Setenv("STATUS_HTTP_ADDR", "127.0.0.1:9090")

	rt := LoadRuntime()
	if rt.DatabaseURL != "postgres://batch@localhost/batch" {
		t.Errorf("DatabaseURL = %q", rt.DatabaseURL)
	}
	if rt.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", rt.RedisAddr)
	}
	if rt.LockTTL != 30*time.Minute {
		t.Errorf("LockTTL = %v, want 30m", rt.LockTTL)
	}
	if rt.StatusAddr != "127.0.0.1:9090" {
		t.Errorf("StatusAddr = %q", rt.StatusAddr)
	}
}
