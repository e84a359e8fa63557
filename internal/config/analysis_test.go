package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmptyAnalysisConfig_Defaults(t *testing.T) {
	cfg := EmptyAnalysisConfig()

	if got := cfg.GetTargetMeanPre(); got != 120.0 {
		t.Errorf("GetTargetMeanPre() = %v, want 120", got)
	}
	if got := cfg.GetTargetMeanPost(); got != 17.5 {
		t.Errorf("GetTargetMeanPost() = %v, want 17.5", got)
	}
	if got := cfg.GetProfilePaddingPre(); got != 0.20 {
		t.Errorf("GetProfilePaddingPre() = %v, want 0.20", got)
	}
	if got := cfg.GetProfilePaddingPost(); got != 0.05 {
		t.Errorf("GetProfilePaddingPost() = %v, want 0.05", got)
	}
	if got := cfg.GetListen(); got != ":8080" {
		t.Errorf("GetListen() = %q, want :8080", got)
	}
	if got := cfg.GetSessionTTL(); got != time.Hour {
		t.Errorf("GetSessionTTL() = %v, want 1h", got)
	}
	if got := cfg.GetCacheEntries(); got != 16 {
		t.Errorf("GetCacheEntries() = %d, want 16", got)
	}
	if got := cfg.GetReportWorkers(); got != 4 {
		t.Errorf("GetReportWorkers() = %d, want 4", got)
	}
	if got := cfg.GetMaxUploadBytes(); got != 32<<20 {
		t.Errorf("GetMaxUploadBytes() = %d, want %d", got, 32<<20)
	}
	if got := cfg.GetEChartsAssetsHost(); got != "" {
		t.Errorf("GetEChartsAssetsHost() = %q, want empty", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestLoadAnalysisConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "analysis.json")

	testJSON := `{
  "target_mean_pre": 118.5,
  "target_mean_post": 18,
  "session_ttl": "15m",
  "echarts_assets_host": "/static/echarts/"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadAnalysisConfig(configPath)
	if err != nil {
		t.Fatalf("LoadAnalysisConfig failed: %v", err)
	}
	if got := cfg.GetTargetMeanPre(); got != 118.5 {
		t.Errorf("GetTargetMeanPre() = %v, want 118.5", got)
	}
	if got := cfg.GetTargetMeanPost(); got != 18 {
		t.Errorf("GetTargetMeanPost() = %v, want 18", got)
	}
	if got := cfg.GetSessionTTL(); got != 15*time.Minute {
		t.Errorf("GetSessionTTL() = %v, want 15m", got)
	}
	if got := cfg.GetEChartsAssetsHost(); got != "/static/echarts/" {
		t.Errorf("GetEChartsAssetsHost() = %q", got)
	}
	// Omitted fields keep their defaults.
	if got := cfg.GetProfilePaddingPre(); got != DefaultProfilePaddingPre {
		t.Errorf("GetProfilePaddingPre() = %v, want default", got)
	}
}

func TestLoadAnalysisConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "nope.json"), "stat"},
		{"bad json", write("bad.json", "{"), "parse"},
		{"padding out of range", write("pad.json", `{"profile_padding_pre": 1.5}`), "profile_padding_pre"},
		{"bad ttl", write("ttl.json", `{"session_ttl": "soon"}`), "session_ttl"},
		{"negative ttl", write("nttl.json", `{"session_ttl": "-1m"}`), "session_ttl"},
		{"zero cache", write("cache.json", `{"cache_entries": 0}`), "cache_entries"},
		{"zero workers", write("workers.json", `{"report_workers": 0}`), "report_workers"},
		{"zero upload", write("upload.json", `{"max_upload_bytes": 0}`), "max_upload_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAnalysisConfig(tt.path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAnalysisConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.json")
	big := `{"listen": "` + strings.Repeat("x", 1<<20) + `"}`
	if err := os.WriteFile(p, []byte(big), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAnalysisConfig(p); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if got := cfg.GetTargetMeanPre(); got != DefaultTargetMeanPre {
		t.Errorf("defaults file target_mean_pre = %v, want %v", got, DefaultTargetMeanPre)
	}
	if got := cfg.GetTargetMeanPost(); got != DefaultTargetMeanPost {
		t.Errorf("defaults file target_mean_post = %v, want %v", got, DefaultTargetMeanPost)
	}
	if got := cfg.GetSessionTTL(); got != DefaultSessionTTL {
		t.Errorf("defaults file session_ttl = %v, want %v", got, DefaultSessionTTL)
	}
}
