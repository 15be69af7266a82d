// Package fetch implements per-type fetch strategies. Strategies never fail: live data
// problems are logged and replaced with synthetic items.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/umputun/livefeed/pkg/domain"
)

// ErrUnsupportedType returned by the dispatcher for source types without a strategy
var ErrUnsupportedType = errors.New("unsupported source type")

// Strategy fetches normalized items for one source
type Strategy interface {
	Fetch(ctx context.Context, src domain.SourceConfig) []domain.Item
}

// Metrics records fetch-side events
type Metrics interface {
	FallbackUsed(sourceType string)
}

func recordFallback(m Metrics, t domain.SourceType) {
	if m != nil {
		m.FallbackUsed(string(t))
	}
}

// Dispatcher maps every known source type to its strategy
type Dispatcher struct {
	strategies map[domain.SourceType]Strategy
}

// NewDispatcher makes a dispatcher, rss and news share the feed strategy
func NewDispatcher(weather, feeds Strategy) *Dispatcher {
	return &Dispatcher{strategies: map[domain.SourceType]Strategy{
		domain.SourceWeather: weather,
		domain.SourceRSS:     feeds,
		domain.SourceNews:    feeds,
	}}
}

// Fetch runs the strategy matching the source type
func (d *Dispatcher) Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.Item, error) {
	t, err := src.Type()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	s, ok := d.strategies[t]
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	return s.Fetch(ctx, src), nil
}
