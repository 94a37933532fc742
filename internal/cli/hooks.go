package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/widgetgrid/pkg/observability"
)

// logHooks reports layout and cache events as debug log lines.
type logHooks struct {
	logger *log.Logger
}

// InstallHooks registers hooks that log layout and cache events through the
// CLI logger. They are visible with --verbose.
func (c *CLI) InstallHooks() {
	h := logHooks{logger: c.Logger}
	observability.SetLayoutHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnLoad(_ context.Context, path string, instances int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("layout load failed", "file", path, "err", err)
		return
	}
	h.logger.Debug("layout read", "file", path, "instances", instances, "took", d.Round(time.Microsecond))
}

func (h logHooks) OnSave(_ context.Context, path string, size int, err error) {
	if err != nil {
		h.logger.Debug("layout save failed", "file", path, "err", err)
		return
	}
	h.logger.Debug("layout written", "file", path, "bytes", size)
}

func (h logHooks) OnEdit(context.Context, string, time.Duration, error) {
	// progress.done already logs edits.
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ observability.LayoutHooks = logHooks{}
	_ observability.CacheHooks  = logHooks{}
)
