package history

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pakd/pkg/backend"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry("/3_12345678", backend.RoleInstallPackages, "sample")

	if entry.ID != "/3_12345678" {
		t.Errorf("expected id to be kept, got %q", entry.ID)
	}
	if entry.Role != backend.RoleInstallPackages {
		t.Errorf("expected role install-packages, got %s", entry.Role)
	}
	if entry.Backend != "sample" {
		t.Errorf("expected backend 'sample', got '%s'", entry.Backend)
	}
	if entry.Succeeded {
		t.Error("new entry should have Succeeded = false")
	}
	if entry.Timestamp.IsZero() {
		t.Error("entry timestamp should be set")
	}
}

func TestMarkSuccess(t *testing.T) {
	entry := NewEntry("/1_a", backend.RoleResolve, "sample")
	entry.MarkSuccess()

	if !entry.Succeeded || entry.Exit != backend.ExitSuccess {
		t.Errorf("unexpected state after MarkSuccess: %+v", entry)
	}
}

func TestMarkFailed(t *testing.T) {
	entry := NewEntry("/1_a", backend.RoleInstallPackages, "sample")
	entry.MarkFailed(backend.ExitCancelled, errors.New("stopped"))

	if entry.Succeeded {
		t.Error("expected Succeeded = false")
	}
	if entry.Exit != backend.ExitCancelled {
		t.Errorf("expected exit cancelled, got %s", entry.Exit)
	}
	if entry.Error != "stopped" {
		t.Errorf("expected error message, got %q", entry.Error)
	}

	entry.MarkFailed(backend.ExitFailed, nil)
	if entry.Error != "stopped" {
		t.Error("nil error should keep the previous message")
	}
}

func TestSummary(t *testing.T) {
	entry := &Entry{
		Timestamp: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Role:      backend.RoleInstallPackages,
		Backend:   "sample",
		Exit:      backend.ExitSuccess,
		Data:      "vips-doc;7.12.4-2.fc8;noarch;linva",
	}

	got := entry.Summary()
	want := "2024-03-01 12:30:00 install-packages vips-doc;7.12.4-2.fc8;noarch;linva [sample] (success)"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	entry.Data = ""
	entry.Exit = ""
	if !strings.HasSuffix(entry.Summary(), "install-packages (unknown)") {
		t.Errorf("unexpected summary without data: %q", entry.Summary())
	}
}
