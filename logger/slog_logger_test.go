package logger

import (
	"os"
	"strings"
	"testing"
)

func TestNewSLogWithOptions(t *testing.T) {
	tests := []struct {
		name    string
		options *SLogOptions
		wantErr bool
	}{
		{
			name:    "nil options",
			options: nil,
			wantErr: true,
		},
		{
			name: "default stdout output",
			options: &SLogOptions{
				Level: "info",
			},
			wantErr: false,
		},
		{
			name: "stderr output with json format",
			options: &SLogOptions{
				Level:  "debug",
				Format: "json",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "custom fields",
			options: &SLogOptions{
				Level:  "info",
				Format: "json",
				Fields: map[string]any{"service": "desa"},
			},
			wantErr: false,
		},
		{
			name: "invalid level",
			options: &SLogOptions{
				Level: "invalid",
			},
			wantErr: true,
		},
		{
			name: "invalid format",
			options: &SLogOptions{
				Level:  "info",
				Format: "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewSLogWithOptions(tt.options)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSLogWithOptions() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("NewSLogWithOptions() returned nil logger without error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"warning", false},
		{"error", false},
		{"DEBUG", false}, // 测试大小写不敏感
		{"INFO", false},
		{"invalid", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := parseLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	tempDir := t.TempDir()
	logFile := tempDir + "/sub/test.log"

	logger, err := NewSLogWithOptions(&SLogOptions{
		Level:  "info",
		Format: "json",
		Output: logFile,
	})
	if err != nil {
		t.Fatalf("NewSLogWithOptions() error = %v", err)
	}

	logger.Info("file output test", "key", "value")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "file output test") {
		t.Errorf("Log file doesn't contain expected message")
	}
	if !strings.Contains(string(content), `"key":"value"`) {
		t.Errorf("Log file doesn't contain expected field")
	}
}

func TestWith(t *testing.T) {
	tempDir := t.TempDir()
	logFile := tempDir + "/with.log"

	base, err := NewSLogWithOptions(&SLogOptions{
		Level:  "debug",
		Format: "json",
		Output: logFile,
	})
	if err != nil {
		t.Fatalf("NewSLogWithOptions() error = %v", err)
	}

	logger := base.With("component", "db").WithGroup("detail")
	logger.Debug("with test", "table", "users")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), `"component":"db"`) {
		t.Errorf("Log file doesn't contain component field")
	}
	if !strings.Contains(string(content), `"detail":{"table":"users"}`) {
		t.Errorf("Log file doesn't contain grouped field")
	}
}

func TestLevelFiltering(t *testing.T) {
	tempDir := t.TempDir()
	logFile := tempDir + "/level.log"

	logger, err := NewSLogWithOptions(&SLogOptions{
		Level:  "warn",
		Format: "text",
		Output: logFile,
	})
	if err != nil {
		t.Fatalf("NewSLogWithOptions() error = %v", err)
	}

	logger.Info("should be filtered")
	logger.Warn("should be written")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if strings.Contains(string(content), "should be filtered") {
		t.Errorf("Info message should have been filtered at warn level")
	}
	if !strings.Contains(string(content), "should be written") {
		t.Errorf("Warn message missing from log file")
	}
}
