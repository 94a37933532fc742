package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matzehuels/widgetgrid/pkg/grid"
	"github.com/matzehuels/widgetgrid/pkg/observability"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// session is the resolved environment of one command: configuration,
// template registry and layout path.
type session struct {
	cfg  Config
	reg  *widget.MapRegistry
	path string
}

func (c *CLI) openSession() (*session, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	reg, err := c.registry(cfg)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &session{cfg: cfg, reg: reg, path: c.layoutPath}, nil
}

// load reads the session layout. Instances of unknown templates are kept
// and reported as warnings.
func (s *session) load(ctx context.Context) (*grid.Grid, error) {
	return loadLayout(ctx, s.reg, s.path)
}

func loadLayout(ctx context.Context, reg widget.Registry, path string, opts ...grid.DecodeOption) (*grid.Grid, error) {
	logger := loggerFromContext(ctx)
	start := time.Now()
	g, err := grid.ReadFile(reg, path, append([]grid.DecodeOption{grid.WithLogger(logger)}, opts...)...)

	count := 0
	if g != nil {
		count = len(g.Instances())
	}
	observability.Layout().OnLoad(ctx, path, count, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded layout", "file", path, "instances", count, "width", g.Width(), "height", g.Height())
	return g, nil
}

// save writes g to the session layout atomically.
func (s *session) save(ctx context.Context, g *grid.Grid) error {
	err := g.WriteFile(s.path)
	size := 0
	if err == nil {
		if info, statErr := os.Stat(s.path); statErr == nil {
			size = int(info.Size())
		}
	}
	observability.Layout().OnSave(ctx, s.path, size, err)
	return err
}

// applyEdit runs one edit cycle on the layout named by --file: load, apply
// fn, save. An edit that returns the same grid writes nothing.
func (c *CLI) applyEdit(ctx context.Context, op string, fn func(g *grid.Grid) (*grid.Grid, error)) (*grid.Grid, error) {
	s, err := c.openSession()
	if err != nil {
		return nil, err
	}
	g, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	p := newProgress(c.Logger, op)
	next, err := fn(g)
	if err := p.done(ctx, err); err != nil {
		return nil, err
	}
	if next == g {
		printInfo("Layout unchanged")
		return g, nil
	}
	if err := s.save(ctx, next); err != nil {
		return nil, fmt.Errorf("write layout %s: %w", s.path, err)
	}
	return next, nil
}
