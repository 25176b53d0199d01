package catalogtool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/brickshop/internal/core"
	"golang.org/x/time/rate"
)

// DefaultAPIBase is the Rebrickable v3 LEGO API.
const DefaultAPIBase = "https://rebrickable.com/api/v3/lego"

// DefaultDelay spaces API calls to stay under Rebrickable's rate limit.
const DefaultDelay = 700 * time.Millisecond

// maxAPIResponse caps a single API response body.
const maxAPIResponse = 4 << 20

// Rebrickable looks up sets on the Rebrickable API.
type Rebrickable struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Limiter *rate.Limiter
	Now     func() time.Time
}

// NewRebrickable returns a client that sends at most one request per delay.
// A non-positive delay disables throttling.
func NewRebrickable(apiKey string, delay time.Duration) *Rebrickable {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Rebrickable{
		BaseURL: DefaultAPIBase,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Limiter: rate.NewLimiter(limit, 1),
		Now:     time.Now,
	}
}

type apiSet struct {
	SetNum    string `json:"set_num"`
	Name      string `json:"name"`
	SetImgURL string `json:"set_img_url"`
	SetImg    string `json:"set_img"`
}

func (s apiSet) image() string {
	if s.SetImgURL != "" {
		return s.SetImgURL
	}
	return s.SetImg
}

type apiSearch struct {
	Results []apiSet `json:"results"`
}

// Lookup resolves one set number. The set endpoint is tried first, then a
// search whose results prefer a set number starting with setNum. When both
// miss, the returned entry has no name and records the set endpoint's
// status, so the miss is cached. Only transport failures return an error.
func (c *Rebrickable) Lookup(ctx context.Context, setNum string) (core.EnrichmentEntry, error) {
	fetched := c.Now().Unix()

	var set apiSet
	status, err := c.get(ctx, "/sets/"+url.PathEscape(setNum)+"/", &set)
	if err != nil {
		return core.EnrichmentEntry{}, err
	}
	if status == http.StatusOK {
		found := set.SetNum
		if found == "" {
			found = setNum
		}
		return core.EnrichmentEntry{Name: set.Name, ImageURL: set.image(), SetNumFound: found, Fetched: fetched}, nil
	}

	var search apiSearch
	searchStatus, err := c.get(ctx, "/sets/?search="+url.QueryEscape(setNum), &search)
	if err != nil {
		return core.EnrichmentEntry{}, err
	}
	if searchStatus == http.StatusOK {
		if chosen, ok := bestMatch(setNum, search.Results); ok {
			return core.EnrichmentEntry{Name: chosen.Name, ImageURL: chosen.image(), SetNumFound: chosen.SetNum, Fetched: fetched}, nil
		}
	}

	slog.Warn("rebrickable lookup missed", "set", setNum, "status", status, "search_status", searchStatus)
	return core.EnrichmentEntry{Fetched: fetched, Status: status}, nil
}

// bestMatch prefers a result whose set number, ignoring dashes, starts
// with query; otherwise the first result.
func bestMatch(query string, results []apiSet) (apiSet, bool) {
	for _, r := range results {
		if strings.HasPrefix(strings.ReplaceAll(r.SetNum, "-", ""), query) {
			return r, true
		}
	}
	if len(results) > 0 {
		return results[0], true
	}
	return apiSet{}, false
}

// get fetches path and decodes a 200 body into v. Some keys are only
// accepted in one header form, so a 401 or 403 is retried with X-Api-Key.
func (c *Rebrickable) get(ctx context.Context, path string, v any) (int, error) {
	status, body, err := c.do(ctx, path, "Authorization", "key "+c.APIKey)
	if err != nil {
		return 0, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		status, body, err = c.do(ctx, path, "X-Api-Key", c.APIKey)
		if err != nil {
			return 0, err
		}
	}
	if status != http.StatusOK {
		return status, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return status, nil
}

func (c *Rebrickable) do(ctx context.Context, path, header, value string) (int, []byte, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set(header, value)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("rebrickable %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponse))
	if err != nil {
		return 0, nil, fmt.Errorf("rebrickable %s: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

// RefreshStats counts the outcome of a cache refresh.
type RefreshStats struct {
	Looked int
	Found  int
	Missed int
	Cached int
	Failed int
}

// RefreshCache looks up every id not already cached with a name, or every
// id when force is set, and stores the results in cache. Transport errors
// are logged and leave the old entry in place. It stops early when ctx ends.
func RefreshCache(ctx context.Context, c *Rebrickable, ids []string, cache core.Enrichment, force bool) (RefreshStats, error) {
	var stats RefreshStats
	for _, id := range ids {
		if !force && cache[id].Name != "" {
			stats.Cached++
			continue
		}

		entry, err := c.Lookup(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			slog.Warn("lookup failed", "set", id, "error", err)
			stats.Failed++
			continue
		}

		stats.Looked++
		if entry.Name != "" {
			stats.Found++
		} else {
			stats.Missed++
		}
		cache[id] = entry

		if stats.Looked%50 == 0 {
			slog.Info("refresh progress", "looked", stats.Looked, "total", len(ids))
		}
	}
	return stats, nil
}
