package preview

import (
	"context"
	"time"

	"github.com/matzehuels/widgetgrid/pkg/cache"
	"github.com/matzehuels/widgetgrid/pkg/grid"
	"github.com/matzehuels/widgetgrid/pkg/observability"
)

// keyType labels preview entries in cache hooks.
const keyType = "preview"

// DefaultTTL is how long cached previews live.
const DefaultTTL = 7 * 24 * time.Hour

// Renderer renders previews through a cache.
type Renderer struct {
	Cache cache.Cache
	Keyer cache.Keyer
	// Catalog identifies the template set. Templates change rendering
	// without changing the layout document, so it is part of the key.
	Catalog string
	TTL     time.Duration
}

// NewRenderer returns a Renderer backed by c. A nil c uses [cache.NullCache].
func NewRenderer(c cache.Cache, catalog string) *Renderer {
	if c == nil {
		c = cache.NullCache{}
	}
	return &Renderer{Cache: c, Keyer: cache.NewDefaultKeyer(), Catalog: catalog, TTL: DefaultTTL}
}

// Render returns the preview of g and whether it was served from the cache.
// Cache failures fall back to rendering.
func (r *Renderer) Render(ctx context.Context, g *grid.Grid, opts Options) (string, bool, error) {
	opts = opts.withDefaults()
	data, err := g.MarshalJSON()
	if err != nil {
		return "", false, err
	}
	key := r.Keyer.PreviewKey(cache.Hash(data), cache.PreviewKeyOpts{
		CellWidth:  opts.CellWidth,
		CellHeight: opts.CellHeight,
		Style:      styleKey(opts),
		Catalog:    r.Catalog,
	})

	hooks := observability.Cache()
	if cached, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, keyType)
		return string(cached), true, nil
	}
	hooks.OnCacheMiss(ctx, keyType)

	out := Render(g, opts)
	if err := r.Cache.Set(ctx, key, []byte(out), r.TTL); err == nil {
		hooks.OnCacheSet(ctx, keyType, len(out))
	}
	return out, false, nil
}

// styleKey identifies the drawing style in cache keys.
func styleKey(opts Options) string {
	b := opts.Border
	key := b.TopLeft + b.Top + b.TopRight + b.Left + b.Right + b.BottomLeft + b.Bottom + b.BottomRight
	if opts.ShowEmpty {
		key += "+empty"
	}
	return key
}
