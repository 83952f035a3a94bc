package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

func validSettingsMap() map[string]interface{} {
	return map[string]interface{}{
		"api_key":           "test-key",
		"default_output":    "Creators",
		"nsfw":              true,
		"rate_limit":        true,
		"request_timeout":   30,
		"download_timeout":  60,
		"max_retries":       3,
		"retry_backoff_sec": 5,
		"image_extensions":  []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		"video_extensions":  []string{".mp4", ".webm", ".mov"},
		"default_media_types": map[string]bool{
			"images": true,
			"videos": true,
			"other":  false,
		},
	}
}

func writeSettingsFile(t *testing.T, dir string, settings map[string]interface{}) string {
	t.Helper()
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		t.Fatalf("could not encode settings: %v", err)
	}
	path := filepath.Join(dir, "Configuration.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("could not write settings file: %v", err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	// Switch to a temp directory to avoid loading a real .env
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not chdir to temp dir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatalf("could not chdir back to original dir: %v", err)
		}
	}()

	path := writeSettingsFile(t, tmpDir, validSettingsMap())

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.APIKey != "test-key" {
		t.Errorf("APIKey: expected %q, got %q", "test-key", cfg.APIKey)
	}
	if cfg.DefaultOutput != "Creators" {
		t.Errorf("DefaultOutput: expected %q, got %q", "Creators", cfg.DefaultOutput)
	}
	if cfg.RequestTimeoutDur() != 30*time.Second {
		t.Errorf("RequestTimeoutDur: expected %v, got %v", 30*time.Second, cfg.RequestTimeoutDur())
	}
	if cfg.MemoryThresholdBytes != DefaultMemoryThreshold {
		t.Errorf("MemoryThresholdBytes: expected default %d, got %d", DefaultMemoryThreshold, cfg.MemoryThresholdBytes)
	}
	if cfg.DownloadLockPolicy != model.LockBestEffort {
		t.Errorf("DownloadLockPolicy: expected default %q, got %q", model.LockBestEffort, cfg.DownloadLockPolicy)
	}
	if !cfg.DefaultMediaTypes.Images || !cfg.DefaultMediaTypes.Videos || cfg.DefaultMediaTypes.Other {
		t.Errorf("DefaultMediaTypes: expected {true true false}, got %+v", cfg.DefaultMediaTypes)
	}
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not chdir to temp dir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatalf("could not chdir back to original dir: %v", err)
		}
	}()

	path := writeSettingsFile(t, tmpDir, validSettingsMap())
	t.Setenv("CIVITAI_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey: expected env override %q, got %q", "env-key", cfg.APIKey)
	}
}

func TestLoad_MissingRequiredKeys(t *testing.T) {
	keys := []string{
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

	for _, missing := range keys {
		t.Run(missing, func(t *testing.T) {
			origDir, err := os.Getwd()
			if err != nil {
				t.Fatalf("could not get working directory: %v", err)
			}
			tmpDir := t.TempDir()
			if err := os.Chdir(tmpDir); err != nil {
				t.Fatalf("could not chdir to temp dir: %v", err)
			}
			defer func() {
				if err := os.Chdir(origDir); err != nil {
					t.Fatalf("could not chdir back to original dir: %v", err)
				}
			}()

			settings := validSettingsMap()
			delete(settings, missing)
			path := writeSettingsFile(t, tmpDir, settings)

			cfg, err := Load(path)
			if err == nil {
				t.Fatalf("expected error for missing %s, got nil", missing)
			}
			wantErr := missing + " is required"
			if err.Error() != wantErr {
				t.Errorf("error = %q; want %q", err.Error(), wantErr)
			}
			if cfg != nil {
				t.Errorf("expected cfg nil on error, got %#v", cfg)
			}
		})
	}
}

func TestLoad_InvalidLockPolicy(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not chdir to temp dir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatalf("could not chdir back to original dir: %v", err)
		}
	}()

	settings := validSettingsMap()
	settings["download_lock_policy"] = "sometimes"
	path := writeSettingsFile(t, tmpDir, settings)

	_, err = Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown lock policy") {
		t.Fatalf("expected lock policy error, got %v", err)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not chdir to temp dir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatalf("could not chdir back to original dir: %v", err)
		}
	}()

	settings := validSettingsMap()
	settings["max_retries"] = 0
	path := writeSettingsFile(t, tmpDir, settings)

	_, err = Load(path)
	if err == nil || !strings.Contains(err.Error(), "max_retries") {
		t.Fatalf("expected max_retries validation error, got %v", err)
	}
}

func TestNormaliseExtensions(t *testing.T) {
	got := normaliseExtensions([]string{"JPG", ".PNG", " webm ", ""})
	want := []string{".jpg", ".png", ".webm"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
