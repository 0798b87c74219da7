package opendata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultFetchTimeout bounds each adapter's HTTP request. The portal has no
// SLA; a hung feed must not stall the joint result forever.
const DefaultFetchTimeout = 15 * time.Second

// maxConcurrentFetches bounds the adapter fan-out per orchestration call.
const maxConcurrentFetches = 4

// Result is the joint outcome of one orchestration call. Per-adapter
// failures land in Errors and never abort sibling adapters; Rejections carry
// the per-record normalization diagnostics.
type Result struct {
	Services   []Service   `json:"services"`
	Errors     []string    `json:"errors"`
	Rejections []Rejection `json:"-"`
}

// Fetcher resolves category selectors against the registry, fetches every
// matching feed concurrently and concatenates the normalized survivors.
type Fetcher struct {
	registry *Registry
	timeout  time.Duration

	// baseOverride redirects adapter URLs in tests.
	baseOverride func(url string) string
}

func NewFetcher(registry *Registry, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{registry: registry, timeout: timeout}
}

// FetchByCategory fetches and normalizes every feed matching the selector.
// A selector matching no adapter yields an empty result with a descriptive
// error entry rather than silently fetching nothing. The returned error is
// non-nil only for orchestration-level failures.
func (f *Fetcher) FetchByCategory(ctx context.Context, category, subcategory string) (*Result, error) {
	adapters := f.registry.Match(category, subcategory)
	if len(adapters) == 0 {
		label := category
		if subcategory != "" {
			label += " - " + subcategory
		}
		return &Result{
			Services: []Service{},
			Errors:   []string{fmt.Sprintf("no data available for %s services", label)},
		}, nil
	}
	return f.fetchAll(ctx, adapters)
}

// FetchAll fetches every registered feed.
func (f *Fetcher) FetchAll(ctx context.Context) (*Result, error) {
	return f.fetchAll(ctx, f.registry.All())
}

func (f *Fetcher) fetchAll(ctx context.Context, adapters []*Adapter) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("opendata: nil context")
	}

	result := &Result{Services: []Service{}}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, adapter := range adapters {
		adapter := adapter
		g.Go(func() error {
			services, rejections, err := f.fetchAdapter(ctx, adapter)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Recovered locally: one bad feed is a soft error.
				result.Errors = append(result.Errors, fmt.Sprintf("error fetching %s: %s", adapter.Key, err.Error()))
				zap.L().Warn("feed fetch failed",
					zap.String("adapter", adapter.Key),
					zap.Error(err))
				return nil
			}
			result.Services = append(result.Services, services...)
			result.Rejections = append(result.Rejections, rejections...)
			return nil
		})
	}

	// Tasks never return errors, so Wait only reports context teardown.
	if err := g.Wait(); err != nil {
		return &Result{Services: []Service{}}, errors.Wrap(err, "opendata: fetch aborted")
	}
	return result, nil
}

func (f *Fetcher) fetchAdapter(ctx context.Context, a *Adapter) ([]Service, []Rejection, error) {
	url := a.URL
	if f.baseOverride != nil {
		url = f.baseOverride(url)
	}

	var (
		body []byte
		code int
	)
	err := gout.GET(url).
		WithContext(ctx).
		SetTimeout(f.timeout).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return nil, nil, err
	}
	if code < 200 || code >= 300 {
		return nil, nil, fmt.Errorf("HTTP error! status: %d", code)
	}

	var records []RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, nil, errors.Wrap(err, "malformed feed payload")
	}

	services := make([]Service, 0, len(records))
	var rejections []Rejection
	for _, raw := range records {
		svc, rej := a.Transform(raw)
		if rej != nil {
			rejections = append(rejections, *rej)
			continue
		}
		services = append(services, *svc)
	}

	zap.L().Debug("feed normalized",
		zap.String("adapter", a.Key),
		zap.Int("received", len(records)),
		zap.Int("kept", len(services)),
		zap.Int("rejected", len(rejections)))
	return services, rejections, nil
}
