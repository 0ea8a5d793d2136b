package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func logFileFor(dir string) string {
	return filepath.Join(dir, "fxshare_"+time.Now().Format("2006-01-02")+".log")
}

func TestInitLogging_WritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	if err := InitLogging(&LogConfig{
		LogDir:     dir,
		MaxSize:    1 << 20,
		MaxBackups: 2,
		LogLevel:   DEBUG,
	}); err != nil {
		t.Fatalf("InitLogging() error = %v", err)
	}
	t.Cleanup(InitStderr)

	InfoLogger.Print("service starting")

	data, err := os.ReadFile(logFileFor(dir))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "INFO: ") || !strings.Contains(string(data), "service starting") {
		t.Errorf("log file missing expected entry, got: %q", string(data))
	}
}

func TestInitLogging_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	if err := InitLogging(&LogConfig{
		LogDir:     dir,
		MaxSize:    1 << 20,
		MaxBackups: 2,
		LogLevel:   WARNING,
	}); err != nil {
		t.Fatalf("InitLogging() error = %v", err)
	}
	t.Cleanup(InitStderr)

	DebugLogger.Print("noisy detail")
	InfoLogger.Print("routine note")
	WarningLogger.Print("worth seeing")
	ErrorLogger.Print("definitely worth seeing")

	data, err := os.ReadFile(logFileFor(dir))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "noisy detail") || strings.Contains(content, "routine note") {
		t.Errorf("entries below WARNING should be dropped, got: %q", content)
	}
	if !strings.Contains(content, "worth seeing") || !strings.Contains(content, "definitely worth seeing") {
		t.Errorf("WARNING and ERROR entries should be written, got: %q", content)
	}
}

func TestRotateLog(t *testing.T) {
	dir := t.TempDir()
	cfg := &LogConfig{LogDir: dir, MaxSize: 16, MaxBackups: 2, LogLevel: INFO}
	if err := InitLogging(cfg); err != nil {
		t.Fatalf("InitLogging() error = %v", err)
	}
	t.Cleanup(InitStderr)

	logFile := logFileFor(dir)
	InfoLogger.Print("first generation")
	rotateLog(cfg, logFile)

	if _, err := os.Stat(logFile + ".1"); err != nil {
		t.Errorf("rotated backup missing: %v", err)
	}
	data, err := os.ReadFile(logFile + ".1")
	if err != nil {
		t.Fatalf("reading rotated file: %v", err)
	}
	if !strings.Contains(string(data), "first generation") {
		t.Error("rotated backup should hold the previous contents")
	}
	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("fresh log file missing after rotation: %v", err)
	}
}
