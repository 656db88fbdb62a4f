package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// DefaultTips is the built-in tip pool.
var DefaultTips = []string{
	"Brush twice a day for two minutes to keep your smile healthy.",
	"Floss once a day to clean between teeth where your brush can't reach.",
	"Replace your toothbrush every three to four months.",
	"Brush your tongue to remove bacteria and freshen your breath.",
	"Drink water after meals to rinse away food particles.",
	"Limit sugary snacks and drinks between meals.",
	"Wait 30 minutes after acidic food before brushing.",
	"Use fluoride toothpaste to strengthen enamel.",
	"Visit your dentist for a check-up every six months.",
	"Hold your brush at a 45-degree angle to the gum line.",
}

type tipFile struct {
	Tips []string `yaml:"tips"`
}

// TipPool is an ordered set of candidate tips that can be reloaded from a
// YAML file while in use.
type TipPool struct {
	mu   sync.RWMutex
	tips []string
	path string
}

// NewTipPool returns a pool over tips, dropping blanks and duplicates.
func NewTipPool(tips []string) *TipPool {
	return &TipPool{tips: normalizeTips(tips)}
}

// LoadTipPool reads a YAML file of the form "tips: [...]".
func LoadTipPool(path string) (*TipPool, error) {
	p := &TipPool{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Tips returns a copy of the current pool.
func (p *TipPool) Tips() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.tips...)
}

// Reload re-reads the backing file. A file without tips is an error and
// leaves the pool unchanged. Pools without a file are left as is.
func (p *TipPool) Reload() error {
	if p.path == "" {
		return nil
	}
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read tips file: %w", err)
	}
	var f tipFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse tips file %s: %w", p.path, err)
	}
	tips := normalizeTips(f.Tips)
	if len(tips) == 0 {
		return fmt.Errorf("tips file %s lists no tips", p.path)
	}

	p.mu.Lock()
	p.tips = tips
	p.mu.Unlock()
	return nil
}

// Watch reloads the pool whenever its file is written or replaced, until
// ctx is done. Reload errors are logged and the previous pool is kept.
func (p *TipPool) Watch(ctx context.Context, logger *slog.Logger) error {
	if p.path == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create tips watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch tips dir: %w", err)
	}
	target := filepath.Clean(p.path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				if err := p.Reload(); err != nil {
					logger.Warn("tip pool reload failed", "path", p.path, "error", err)
					continue
				}
				logger.Info("tip pool reloaded", "path", p.path, "tips", len(p.Tips()))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("tip pool watcher error", "error", err)
			}
		}
	}()
	return nil
}

func normalizeTips(tips []string) []string {
	seen := make(map[string]struct{}, len(tips))
	out := make([]string, 0, len(tips))
	for _, t := range tips {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
