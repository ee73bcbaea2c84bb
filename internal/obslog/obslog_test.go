package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "movetable.log")
	if err := Init(Config{Level: "info", Format: "json", File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { Set(nil) })
	L().Info("redraw_commit")
	L().Debug("hidden")
	Sync()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"redraw_commit"`) {
		t.Fatalf("missing entry: %s", b)
	}
	if strings.Contains(string(b), "hidden") {
		t.Fatalf("debug entry written at info level")
	}
}
