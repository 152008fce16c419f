package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return path
}

func TestNewConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
name: floorsheet-observer
log_level: INFO
network:
  timeout: 30
source:
  name: merolagani
  base_url: https://merolagani.com/Floorsheet.aspx
`)

	cfg, err := NewConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Storage.DBType != "parquet" {
		t.Errorf("db_type default: got %s, want parquet", cfg.Storage.DBType)
	}
	if cfg.Storage.RawPath != DefaultRawPath {
		t.Errorf("raw_path default: got %s", cfg.Storage.RawPath)
	}
	if cfg.Storage.DateSummaryPath != DefaultDateSummaryPath {
		t.Errorf("date_summary_path default: got %s", cfg.Storage.DateSummaryPath)
	}
	if cfg.Storage.CombinedPath != DefaultCombinedPath {
		t.Errorf("combined_path default: got %s", cfg.Storage.CombinedPath)
	}
	if cfg.Retention.Days != DefaultRetentionDays {
		t.Errorf("retention default: got %d, want %d", cfg.Retention.Days, DefaultRetentionDays)
	}
}

func TestNewConfigRejectsUnknownDBType(t *testing.T) {
	path := writeConfig(t, `
name: floorsheet-observer
storage:
  db_type: mongodb
network:
  timeout: 30
source:
  base_url: https://merolagani.com/Floorsheet.aspx
`)

	if _, err := NewConfig(path); err == nil {
		t.Fatal("expected validation error for unknown db_type")
	}
}

func TestNewConfigRequiresConnectionStringForSQL(t *testing.T) {
	path := writeConfig(t, `
name: floorsheet-observer
storage:
  db_type: sqlite
network:
  timeout: 30
source:
  base_url: https://merolagani.com/Floorsheet.aspx
`)

	if _, err := NewConfig(path); err == nil {
		t.Fatal("expected validation error for missing db_connection_string")
	}
}

func TestNewConfigRejectsInvalidDelayRange(t *testing.T) {
	path := writeConfig(t, `
name: floorsheet-observer
network:
  timeout: 30
  delay_min_ms: 2000
  delay_max_ms: 1000
source:
  base_url: https://merolagani.com/Floorsheet.aspx
`)

	if _, err := NewConfig(path); err == nil {
		t.Fatal("expected validation error for inverted delay range")
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeConfig(t, `
name: floorsheet-observer
network:
  timeout: 30
source:
  base_url: https://merolagani.com/Floorsheet.aspx
  max_pages: 5
`)

	cfg, err := NewConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "saved.yaml")
	if err := cfg.Save(out); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := NewConfig(out)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Source.MaxPages != 5 {
		t.Errorf("max_pages lost in round trip: got %d", reloaded.Source.MaxPages)
	}
}
