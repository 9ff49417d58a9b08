package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pakd/internal/config"
	"pakd/internal/logging"
	"pakd/internal/ui"
	"pakd/pkg/backend"
	"pakd/pkg/backend/sample"
	"pakd/pkg/scheduler"
)

// withSample points the command globals at a scheduler over the sample
// backend and answers every prompt with yes.
func withSample(t *testing.T) {
	t.Helper()
	cfg = config.Default()
	logger = logging.Discard()
	filters = backend.FilterNone
	yes, useTUI = true, false

	out := ui.Out
	ui.Out = io.Discard

	b := sample.New(sample.Options{
		Tick:      time.Millisecond,
		ReposPath: filepath.Join(t.TempDir(), "repos.ini"),
	})
	s, err := scheduler.New(context.Background(), b, scheduler.Options{Logger: logger})
	require.NoError(t, err)
	sched = s

	t.Cleanup(func() {
		_ = s.Close()
		sched = nil
		ui.Out = out
		yes = false
	})
}

func TestResolvePackagesByName(t *testing.T) {
	withSample(t)

	ids, err := resolvePackages(context.Background(), []string{"glib2"}, backend.FilterNone)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.True(t, strings.HasPrefix(ids[0], "glib2;"), ids[0])
}

func TestResolvePackagesVirtualName(t *testing.T) {
	withSample(t)

	ids, err := resolvePackages(context.Background(), []string{"pdf-viewer"}, backend.FilterNone)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	// evince and scribus both provide pdf-viewer; --yes takes the newest.
	assert.True(t, strings.HasPrefix(ids[0], "scribus;1.3.4-1.fc8;i386;"), ids[0])
}

func TestResolvePackagesVirtualNameInBatch(t *testing.T) {
	withSample(t)

	ids, err := resolvePackages(context.Background(), []string{"glib2", "pdf-viewer"}, backend.FilterNone)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.True(t, strings.HasPrefix(ids[0], "glib2;"), ids[0])
	assert.True(t, strings.HasPrefix(ids[1], "scribus;"), ids[1])
}

func TestResolvePackagesUnknownName(t *testing.T) {
	withSample(t)

	_, err := resolvePackages(context.Background(), []string{"no-such-package"}, backend.FilterNone)
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestResolvePackagesKeepsIDs(t *testing.T) {
	withSample(t)

	id := "glib2;2.14.0;i386;fedora"
	ids, err := resolvePackages(context.Background(), []string{id}, backend.FilterNone)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}
