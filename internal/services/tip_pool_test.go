package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTipPool_DropsBlanksAndDuplicates(t *testing.T) {
	p := NewTipPool([]string{" brush ", "", "floss", "brush", "  "})
	assert.Equal(t, []string{"brush", "floss"}, p.Tips())
}

func TestTipPool_TipsReturnsCopy(t *testing.T) {
	p := NewTipPool([]string{"brush"})
	tips := p.Tips()
	tips[0] = "changed"
	assert.Equal(t, []string{"brush"}, p.Tips())
}

func TestLoadTipPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tips:\n  - brush\n  - floss\n"), 0o644))

	p, err := LoadTipPool(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"brush", "floss"}, p.Tips())
}

func TestLoadTipPool_Errors(t *testing.T) {
	_, err := LoadTipPool(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tips: [unclosed"), 0o644))
	_, err = LoadTipPool(path)
	assert.Error(t, err)
}

func TestTipPool_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tips: [brush]\n"), 0o644))
	p, err := LoadTipPool(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Watch(ctx, nil))

	require.NoError(t, os.WriteFile(path, []byte("tips: [floss, rinse]\n"), 0o644))
	assert.Eventually(t, func() bool {
		tips := p.Tips()
		return len(tips) == 2 && tips[0] == "floss"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestTipPool_ReloadKeepsPoolOnEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tips: [brush]\n"), 0o644))
	p, err := LoadTipPool(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.Error(t, p.Reload())
	assert.Equal(t, []string{"brush"}, p.Tips())
}
