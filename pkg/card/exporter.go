package card

import (
	"context"
	"time"

	"bugpersona/pkg/persona"

	"go.uber.org/zap"
)

// DefaultCacheTTL bounds how long a rendered card stays cached
const DefaultCacheTTL = 10 * time.Minute

// Cache stores rendered cards by key
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Export is a rendered card ready to download
type Export struct {
	Filename string
	Data     []byte
}

// Exporter renders cards and memoizes them per generation when a cache is set
type Exporter struct {
	renderer *Renderer
	cache    Cache
	ttl      time.Duration
	logger   *zap.Logger
}

type ExporterOption func(*Exporter)

func WithCache(cache Cache, ttl time.Duration) ExporterOption {
	return func(e *Exporter) {
		e.cache = cache
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

func WithLogger(logger *zap.Logger) ExporterOption {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewExporter(renderer *Renderer, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		renderer: renderer,
		ttl:      DefaultCacheTTL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Filename is the download name for a persona's card
func Filename(p *persona.Persona) string {
	if slug := p.Slug(); slug != "" {
		return "bug-persona-" + slug + ".png"
	}
	return "bug-persona.png"
}

// Export renders the card for generation id. Cache failures are logged and
// never fail the export.
func (e *Exporter) Export(ctx context.Context, id string, p *persona.Persona, img *persona.Image) (*Export, error) {
	if p == nil {
		return nil, e.fail(id, ErrExport)
	}

	key := "card:" + id
	if e.cache != nil && id != "" {
		if data, err := e.cache.GetBytes(ctx, key); err == nil && len(data) > 0 {
			e.logger.Debug("card cache hit", zap.String("id", id))
			return &Export{Filename: Filename(p), Data: data}, nil
		}
	}

	data, err := e.renderer.Render(p, img)
	if err != nil {
		return nil, e.fail(id, err)
	}

	if e.cache != nil && id != "" {
		if err := e.cache.SetBytes(ctx, key, data, e.ttl); err != nil {
			e.logger.Warn("failed to cache card", zap.String("id", id), zap.Error(err))
		}
	}

	return &Export{Filename: Filename(p), Data: data}, nil
}

func (e *Exporter) fail(id string, err error) error {
	e.logger.Error("card export failed", zap.String("id", id), zap.Error(err))
	return err
}
