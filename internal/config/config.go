package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultSettingsFile = "Configuration.json"
	DefaultCreatorsFile = "CreatorsList.json"

	// DefaultMemoryThreshold caps whole-body buffering at 2 GiB; larger
	// responses are streamed to disk instead.
	DefaultMemoryThreshold = int64(2) * 1024 * 1024 * 1024
)

type Settings struct {
	APIKey               string           `json:"api_key" validate:"required"`
	DefaultOutput        string           `json:"default_output" validate:"required"`
	NSFW                 bool             `json:"nsfw"`
	RateLimit            bool             `json:"rate_limit"`
	RequestTimeout       int              `json:"request_timeout" validate:"gt=0"`
	DownloadTimeout      int              `json:"download_timeout" validate:"gt=0"`
	MaxRetries           int              `json:"max_retries" validate:"gte=1"`
	RetryBackoffSec      int              `json:"retry_backoff_sec" validate:"gt=0"`
	ImageExtensions      []string         `json:"image_extensions" validate:"min=1"`
	VideoExtensions      []string         `json:"video_extensions" validate:"min=1"`
	DefaultMediaTypes    MediaTypes       `json:"default_media_types"`
	MemoryThresholdBytes int64            `json:"memory_threshold_bytes" validate:"gte=0"`
	DownloadLockPolicy   model.LockPolicy `json:"download_lock_policy" validate:"oneof=best_effort block fail"`
}

func (s *Settings) RequestTimeoutDur() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func (s *Settings) DownloadTimeoutDur() time.Duration {
	return time.Duration(s.DownloadTimeout) * time.Second
}

func (s *Settings) RetryBackoff() time.Duration {
	return time.Duration(s.RetryBackoffSec) * time.Second
}

var requiredKeys = []string{
	"api_key",
	"default_output",
	"nsfw",
	"rate_limit",
	"request_timeout",
	"download_timeout",
	"max_retries",
	"retry_backoff_sec",
	"image_extensions",
	"video_extensions",
	"default_media_types",
}

// Load reads the settings file plus environment overrides. The
// CIVITAI_API_KEY env var (optionally from .env) takes precedence over
// the file's api_key.
func Load(settingsFile string) (*Settings, error) {
	if settingsFile == "" {
		settingsFile = DefaultSettingsFile
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", "CIVITAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding CIVITAI_API_KEY: %w", err)
	}

	v.SetConfigFile(settingsFile)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("missing or unreadable %s: %w", settingsFile, err)
	}

	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	v.SetDefault("memory_threshold_bytes", DefaultMemoryThreshold)
	v.SetDefault("download_lock_policy", string(model.LockBestEffort))

	policy, err := model.ParseLockPolicy(v.GetString("download_lock_policy"))
	if err != nil {
		return nil, err
	}

	settings := &Settings{
		APIKey:               v.GetString("api_key"),
		DefaultOutput:        v.GetString("default_output"),
		NSFW:                 v.GetBool("nsfw"),
		RateLimit:            v.GetBool("rate_limit"),
		RequestTimeout:       v.GetInt("request_timeout"),
		DownloadTimeout:      v.GetInt("download_timeout"),
		MaxRetries:           v.GetInt("max_retries"),
		RetryBackoffSec:      v.GetInt("retry_backoff_sec"),
		ImageExtensions:      normaliseExtensions(v.GetStringSlice("image_extensions")),
		VideoExtensions:      normaliseExtensions(v.GetStringSlice("video_extensions")),
		DefaultMediaTypes:    mediaTypesFromMap(v.GetStringMap("default_media_types")),
		MemoryThresholdBytes: v.GetInt64("memory_threshold_bytes"),
		DownloadLockPolicy:   policy,
	}

	if err := validation.ValidateStruct(settings); err != nil {
		lines := validation.ErrorsToList(err)
		return nil, fmt.Errorf("%s validation failed:\n  - %s", settingsFile, strings.Join(lines, "\n  - "))
	}

	return settings, nil
}

// normaliseExtensions lowercases entries and guarantees the leading dot,
// so lookups can always compare against filepath.Ext output.
func normaliseExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func mediaTypesFromMap(m map[string]interface{}) MediaTypes {
	boolAt := func(key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	return MediaTypes{
		Images: boolAt("images"),
		Videos: boolAt("videos"),
		Other:  boolAt("other"),
	}
}
