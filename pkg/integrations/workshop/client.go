package workshop

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/jfahler/loadmasterbot/pkg/buildinfo"
	"github.com/jfahler/loadmasterbot/pkg/cache"
	"github.com/jfahler/loadmasterbot/pkg/catalog"
	"github.com/jfahler/loadmasterbot/pkg/httputil"
	"github.com/jfahler/loadmasterbot/pkg/integrations"
	"github.com/jfahler/loadmasterbot/pkg/mod"
)

// DefaultBaseURL is the item page URL without the id.
const DefaultBaseURL = "https://steamcommunity.com/sharedfiles/filedetails/?id="

// SizeSource is the long-lived size store consulted when a page states no
// size and the static table has none.
type SizeSource interface {
	Size(ctx context.Context, id string) (gb float64, ok bool, err error)
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL string                   // default DefaultBaseURL
	TTL     time.Duration            // cache TTL; default cache.TTLItem
	HTTP    integrations.HTTPOptions // timeout and rate limit
	Retry   *httputil.Policy         // default httputil.DefaultPolicy
	Catalog *catalog.Catalog         // default catalog.Default()
	Sizes   SizeSource               // optional
	Keyer   cache.Keyer              // default cache.DefaultKeyer
	Logger  *log.Logger              // default discards
}

// Client fetches and parses workshop item pages.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL  string
	catalog  *catalog.Catalog
	sizes    SizeSource
	keyer    cache.Keyer
	logger   *log.Logger
	classify *classifier
	now      func() time.Time
}

// NewClient creates a workshop client backed by the given cache.
// A nil backend disables caching.
func NewClient(backend cache.Cache, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TTL <= 0 {
		opts.TTL = cache.TTLItem
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	base := integrations.NewClient(backend, integrations.ClientOptions{
		TTL:   opts.TTL,
		HTTP:  opts.HTTP,
		Retry: opts.Retry,
		Headers: map[string]string{
			"Accept":          "text/html",
			"Accept-Language": "en-US,en;q=0.8",
			"User-Agent":      buildinfo.UserAgent(),
		},
	})

	return &Client{
		Client:   base,
		baseURL:  opts.BaseURL,
		catalog:  opts.Catalog,
		sizes:    opts.Sizes,
		keyer:    opts.Keyer,
		logger:   opts.Logger,
		classify: newClassifier(opts.Catalog),
		now:      time.Now,
	}
}

// BaseURL returns the item page URL prefix.
func (c *Client) BaseURL() string { return c.baseURL }

// ItemURL returns the page URL for id.
func (c *Client) ItemURL(id string) string { return c.baseURL + id }

// FetchItem returns metadata for one workshop item.
//
// If refresh is true, the cache is bypassed and the page is fetched again.
//
// Returns:
//   - metadata on success; Name is never empty, SizeGB may be nil
//   - [integrations.ErrNotFound] if the page returns 404
//   - [integrations.ErrNetwork] for transport failures and other non-200 responses
//   - the context error if ctx ends first
func (c *Client) FetchItem(ctx context.Context, id string, refresh bool) (*mod.Metadata, error) {
	var meta mod.Metadata
	err := c.Cached(ctx, c.keyer.ItemKey(id), refresh, &meta, func() error {
		return c.fetch(ctx, id, &meta)
	})
	if err != nil {
		return nil, fmt.Errorf("workshop item %s: %w", id, err)
	}
	return &meta, nil
}

func (c *Client) fetch(ctx context.Context, id string, meta *mod.Metadata) error {
	url := c.ItemURL(id)
	html, err := c.FetchPage(ctx, url)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("%w: parse page: %v", integrations.ErrNetwork, err)
	}

	p := newPage(id, doc)
	*meta = mod.Metadata{
		ID:          id,
		Name:        extractName(p),
		Description: extractDescription(p),
		URL:         url,
		FetchedAt:   c.now().UTC(),
	}
	meta.Expansions = c.classify.classify(p.text)
	meta.Dependencies = extractDependencies(p, c.catalog, meta.Expansions)

	if gb, src, ok := c.resolveSize(ctx, p); ok {
		meta.SizeGB = mod.Float(gb)
		c.logger.Debug("resolved item size", "id", id, "gb", gb, "source", src)
	}

	c.logger.Debug("parsed workshop item",
		"id", id,
		"name", meta.Name,
		"dependencies", len(meta.Dependencies),
		"required_expansions", len(meta.Expansions.Required))
	return nil
}

// resolveSize walks the size strategy chain and reports which strategy won.
func (c *Client) resolveSize(ctx context.Context, p *page) (float64, string, bool) {
	for _, s := range c.sizeStrategies() {
		if gb, ok := s.resolve(ctx, p); ok && gb > 0 {
			return gb, s.name, true
		}
	}
	return 0, "", false
}

type sizeStrategy struct {
	name    string
	resolve func(ctx context.Context, p *page) (float64, bool)
}

func (c *Client) sizeStrategies() []sizeStrategy {
	return []sizeStrategy{
		{"selector", func(_ context.Context, p *page) (float64, bool) { return sizeFromSelectors(p) }},
		{"text", func(_ context.Context, p *page) (float64, bool) { return sizeFromText(p.text) }},
		{"known", func(_ context.Context, p *page) (float64, bool) { return c.catalog.KnownSize(p.id) }},
		{"store", c.sizeFromStore},
	}
}

func (c *Client) sizeFromStore(ctx context.Context, p *page) (float64, bool) {
	if c.sizes == nil {
		return 0, false
	}
	gb, ok, err := c.sizes.Size(ctx, p.id)
	if err != nil {
		c.logger.Warn("size store lookup failed", "id", p.id, "error", err)
		return 0, false
	}
	return gb, ok
}
