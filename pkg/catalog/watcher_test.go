package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pakd/internal/logging"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packages:\n  - name: a\n    version: \"1\"\n"), 0644))

	s, err := Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx, logging.Component(logging.Discard(), "catalog")))

	require.NoError(t, os.WriteFile(path, []byte("packages:\n  - name: b\n    version: \"2\"\n"), 0644))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(s.Current().Find("b")) == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("catalog was not reloaded after the file changed")
}

func TestWatchBuiltinCatalog(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	require.Error(t, s.Watch(context.Background(), logging.Component(logging.Discard(), "catalog")))
}
