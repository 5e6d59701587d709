package config

import (
	_ "embed"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/util"
)

//go:embed batch.yaml
var defaultManifest []byte

// ComfyUI describes how to reach the generation server and how long to wait.
type ComfyUI struct {
	BaseURL        string        `yaml:"base_url"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	Timeout        time.Duration `yaml:"timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MediaKeys      []string      `yaml:"media_keys"`
}

// Batch is the immutable description of one batch: what to submit and where.
type Batch struct {
	ComfyUI    ComfyUI          `yaml:"comfyui"`
	FPS        float64          `yaml:"fps"`
	Subjects   []models.Subject `yaml:"subjects"`
	AudioFiles []string         `yaml:"audio_files"`
}

// Items returns the batch work list in submission order.
func (b Batch) Items() []models.Item {
	return models.Items(b.Subjects, b.AudioFiles)
}

// Default returns the manifest compiled into the binary.
func Default() (Batch, error) {
	return Parse(defaultManifest)
}

// Parse decodes and validates a manifest. Unset durations fall back to
// the server defaults (10s poll, 2h timeout, 60s per request).
func Parse(data []byte) (Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Batch{}, errors.WrapWithCode(err, errors.CodeValidation, "config.parse", "invalid batch manifest")
	}

	b.ComfyUI.BaseURL = strings.TrimRight(strings.TrimSpace(b.ComfyUI.BaseURL), "/")
	if b.ComfyUI.PollInterval == 0 {
		b.ComfyUI.PollInterval = 10 * time.Second
	}
	if b.ComfyUI.Timeout == 0 {
		b.ComfyUI.Timeout = 2 * time.Hour
	}
	if b.ComfyUI.RequestTimeout == 0 {
		b.ComfyUI.RequestTimeout = 60 * time.Second
	}
	if len(b.ComfyUI.MediaKeys) == 0 {
		b.ComfyUI.MediaKeys = []string{"gifs"}
	}
	if b.FPS == 0 {
		b.FPS = 25.0
	}

	if err := b.validate(); err != nil {
		return Batch{}, err
	}
	return b, nil
}

func (b Batch) validate() error {
	u, err := url.Parse(b.ComfyUI.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Validationf("comfyui.base_url must be an absolute URL, got %q", b.ComfyUI.BaseURL)
	}
	if b.ComfyUI.PollInterval < 0 || b.ComfyUI.Timeout < 0 || b.ComfyUI.RequestTimeout < 0 {
		return errors.Validation("comfyui durations must be positive")
	}
	if b.FPS < 0 {
		return errors.Validationf("fps must be positive, got %v", b.FPS)
	}
	if len(b.Subjects) == 0 {
		return errors.Validation("at least one subject is required")
	}
	seen := make(map[string]bool, len(b.Subjects))
	for i, s := range b.Subjects {
		if strings.TrimSpace(s.Name) == "" {
			return errors.Validationf("subjects[%d].name is required", i)
		}
		if seen[s.Name] {
			return errors.Validationf("duplicate subject name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Frame == "" || s.Face == "" {
			return errors.Validationf("subject %q needs frame and face images", s.Name)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return errors.Validationf("subject %q has invalid resolution %s", s.Name, s.Resolution())
		}
	}
	if len(b.AudioFiles) == 0 {
		return errors.Validation("at least one audio file is required")
	}
	for i, a := range b.AudioFiles {
		if strings.TrimSpace(a) == "" {
			return errors.Validationf("audio_files[%d] is empty", i)
		}
	}
	return nil
}

// Runtime holds optional process settings read from the environment.
// None of them change what is submitted.
type Runtime struct {
	// DatabaseURL enables the Postgres run ledger.
	DatabaseURL string
	// RedisAddr enables the exclusive server lock.
	RedisAddr string
	// LockTTL bounds how long a crashed run can hold the server lock.
	LockTTL time.Duration
	// StatusAddr enables the read-only status server.
	StatusAddr string
}

// LoadRuntime reads Runtime from the environment.
func LoadRuntime() Runtime {
	return Runtime{
		DatabaseURL: util.Env("DATABASE_URL", ""),
		RedisAddr:   util.Env("REDIS_ADDR", ""),
		LockTTL:     util.DurationEnv("LOCK_TTL", 3*time.Hour),
		StatusAddr:  util.Env("STATUS_HTTP_ADDR", ""),
	}
}
