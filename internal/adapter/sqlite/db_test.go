package sqlite_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/neomorfeo/dataflex/internal/adapter/sqlite"
)

func TestOpen_MigrationsLogThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	out := buf.String()
	if !strings.Contains(out, "00003_create_agents.sql") {
		t.Fatalf("migration lines missing from slog output: %q", out)
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "{") {
			t.Errorf("line not written by the slog handler: %q", line)
		}
	}
}
