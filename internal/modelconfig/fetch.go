package modelconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

const (
	defaultFetchTimeout = 5 * time.Second
	defaultCacheSize    = 128
	defaultCacheTTL     = time.Minute

	// maxConfigBytes caps the size of an external config body.
	maxConfigBytes = 4 << 20
)

var fetchTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "model_config_fetch_total",
		Help: "Number of external model config lookups, by result.",
	},
	[]string{"result"},
)

// FetcherConfig configures a Fetcher. Zero values fall back to defaults.
type FetcherConfig struct {
	Origin    string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration

	// LookupDir is searched for a document named after the model when the
	// model has no config URL. Empty disables the lookup.
	LookupDir string

	// Client is used for outgoing requests, http.DefaultClient if nil.
	Client *http.Client
}

// Fetcher loads external model configuration documents over HTTP and keeps
// successful results in an expiring LRU cache keyed by absolute URL.
type Fetcher struct {
	origin  string
	timeout time.Duration
	client  *http.Client
	cache   *expirable.LRU[string, Document]
}

// NewFetcher creates a new Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}

	return &Fetcher{
		origin:  strings.TrimSuffix(cfg.Origin, "/"),
		timeout: cfg.Timeout,
		client:  cfg.Client,
		cache:   expirable.NewLRU[string, Document](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// ResolveURL turns a stored config URL into an absolute one. URLs starting
// with http are kept, anything else is placed under the origin.
func (f *Fetcher) ResolveURL(configURL string) string {
	if strings.HasPrefix(configURL, "http") {
		return configURL
	}

	if strings.HasPrefix(configURL, "/") {
		return f.origin + configURL
	}

	return f.origin + "/" + configURL
}

// Fetch returns the raw external document behind configURL.
func (f *Fetcher) Fetch(ctx context.Context, configURL string) (Document, error) {
	if configURL == "" {
		return nil, ErrNoConfigURL
	}

	endpoint := f.ResolveURL(configURL)

	if doc, ok := f.cache.Get(endpoint); ok {
		fetchTotal.WithLabelValues("cache").Inc()
		return doc.Clone(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build config request %s: %w", endpoint, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch config %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetchStatus, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigBytes))
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read config %s: %w", endpoint, err)
	}

	doc, err := Parse(body)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	f.cache.Add(endpoint, doc)
	fetchTotal.WithLabelValues("ok").Inc()

	return doc.Clone(), nil
}

// Invalidate drops the cached document of configURL.
func (f *Fetcher) Invalidate(configURL string) {
	f.cache.Remove(f.ResolveURL(configURL))
}

// Resolver produces the effective configuration of a model.
type Resolver struct {
	Normalizer Normalizer
	Fetcher    *Fetcher
	LookupDir  string
}

// NewResolver creates a Resolver that normalizes against origin.
func NewResolver(cfg FetcherConfig) *Resolver {
	return &Resolver{
		Normalizer: Normalizer{Origin: strings.TrimSuffix(cfg.Origin, "/")},
		Fetcher:    NewFetcher(cfg),
		LookupDir:  strings.TrimSuffix(cfg.LookupDir, "/"),
	}
}

// Candidates returns the paths searched, in order, for a model without a
// config URL: the name as is, with whitespace runs replaced by hyphens,
// lower-cased, and with a config- prefix.
func Candidates(dir, name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	names := []string{
		name,
		strings.Join(strings.Fields(name), "-"),
		strings.ToLower(name),
		"config-" + name,
	}

	seen := make(map[string]struct{}, len(names))
	paths := make([]string, 0, len(names))

	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		paths = append(paths, dir+"/"+url.PathEscape(n)+".json")
	}

	return paths
}

// lookup returns the first candidate document that can be fetched.
func (r *Resolver) lookup(ctx context.Context, name string) (Document, bool) {
	for _, candidate := range Candidates(r.LookupDir, name) {
		doc, err := r.Fetcher.Fetch(ctx, candidate)
		if err == nil {
			return doc, true
		}

		log.Debug().Err(err).Str("model", name).Str("candidate", candidate).Msg("no config at candidate")

		if ctx.Err() != nil {
			break
		}
	}

	return nil, false
}

// Resolve merges base with the document behind configURL. Without a config
// URL the lookup directory is searched by model name. A failed fetch is
// logged and the normalized base is returned.
func (r *Resolver) Resolve(ctx context.Context, name string, base Document, configURL string) Document {
	if r.Fetcher == nil {
		return r.Normalizer.Merge(name, base, nil)
	}

	if configURL == "" {
		if r.LookupDir == "" {
			return r.Normalizer.Merge(name, base, nil)
		}

		external, ok := r.lookup(ctx, name)
		if !ok {
			return r.Normalizer.Merge(name, base, nil)
		}

		return r.Normalizer.Merge(name, base, external)
	}

	external, err := r.Fetcher.Fetch(ctx, configURL)
	if err != nil {
		log.Warn().Err(err).Str("model", name).Str("configUrl", configURL).
			Msg("external config unavailable, using stored config")

		return r.Normalizer.Merge(name, base, nil)
	}

	return r.Normalizer.Merge(name, base, external)
}
