package fetch

import (
	"context"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/livefeed/pkg/domain"
)

// FeedFetcher downloads a raw feed document, see feed.HTTPFetcher
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]byte, error)
}

// FeedParser turns raw feed markup into articles, see feed.Parser
type FeedParser interface {
	Parse(raw []byte, src domain.SourceConfig) []*domain.Article
}

// RSS fetches and parses syndication feeds, used for both rss and news sources
type RSS struct {
	Fetcher   FeedFetcher
	Parser    FeedParser
	Synthetic *Synthetic
	Metrics   Metrics
}

// NewRSS makes the rss/news strategy
func NewRSS(fetcher FeedFetcher, parser FeedParser, synth *Synthetic, metrics Metrics) *RSS {
	return &RSS{Fetcher: fetcher, Parser: parser, Synthetic: synth, Metrics: metrics}
}

// Fetch returns the parsed articles of the source's feed. It always returns at least
// the two synthetic articles, a registered feed never comes back empty.
func (r *RSS) Fetch(ctx context.Context, src domain.SourceConfig) []domain.Item {
	if strings.TrimSpace(src.SourceURL) == "" {
		lgr.Printf("[WARN] feed source %s has no url, using synthetic articles", src.Name())
		return r.fallback(src)
	}

	raw, err := r.Fetcher.Fetch(ctx, src.SourceURL)
	if err != nil {
		lgr.Printf("[WARN] can't fetch feed %s: %v, using synthetic articles", src.Name(), err)
		return r.fallback(src)
	}

	articles := r.Parser.Parse(raw, src)
	if len(articles) == 0 {
		lgr.Printf("[WARN] no articles in feed %s, using synthetic articles", src.Name())
		return r.fallback(src)
	}

	lgr.Printf("[DEBUG] parsed %d articles from %s", len(articles), src.Name())
	return articlesToItems(articles)
}

func (r *RSS) fallback(src domain.SourceConfig) []domain.Item {
	recordFallback(r.Metrics, domain.SourceRSS)
	return articlesToItems(r.Synthetic.Articles(src))
}

func articlesToItems(articles []*domain.Article) []domain.Item {
	res := make([]domain.Item, 0, len(articles))
	for _, a := range articles {
		res = append(res, a)
	}
	return res
}
