package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/samuflix/backend/internal/db"
)

func TestPrintMigrationStatus(t *testing.T) {
	migrations := []db.Migration{
		{Version: "001_init.sql", Objects: []string{"table videos", "index videos_published_at_idx"}},
		{Version: "002_next.sql", Objects: []string{"table reactions"}},
	}
	applied := map[string]time.Time{"001_init.sql": time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	var out bytes.Buffer
	if err := printMigrationStatus(&out, migrations, applied); err != nil {
		t.Fatalf("print status: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a line per migration got %q", out.String())
	}
	if !strings.Contains(lines[0], "2024-05-01T12:00:00Z") || !strings.Contains(lines[0], "table videos, index videos_published_at_idx") {
		t.Fatalf("unexpected applied line %q", lines[0])
	}
	if !strings.Contains(lines[1], "pending") || !strings.Contains(lines[1], "table reactions") {
		t.Fatalf("unexpected pending line %q", lines[1])
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), []string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error got %v", err)
	}
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error without a command")
	}
}
