package catalogtool

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/brickshop/internal/core"
	"golang.org/x/sync/errgroup"
)

// DefaultCheckConcurrency is how many image URLs are checked at once.
const DefaultCheckConcurrency = 8

// Some CDNs reject requests without a browser user agent.
const checkUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0 Safari/537.36"

// Report is the image check result written to image_check_report.json.
type Report struct {
	Total    int       `json:"total"`
	OK       int       `json:"ok"`
	Failures []Failure `json:"failures"`
}

// Failure is one product whose image did not load.
type Failure struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	Reason   string `json:"reason"`
}

// ImageChecker verifies that product images resolve to an image.
type ImageChecker struct {
	HTTP        *http.Client
	Concurrency int
}

// NewImageChecker returns a checker with a 10s per-request timeout.
func NewImageChecker(concurrency int) *ImageChecker {
	if concurrency <= 0 {
		concurrency = DefaultCheckConcurrency
	}
	return &ImageChecker{
		HTTP:        &http.Client{Timeout: 10 * time.Second},
		Concurrency: concurrency,
	}
}

// Check tests every product image. Failures keep catalog order. The only
// error returned is ctx's.
func (c *ImageChecker) Check(ctx context.Context, products []core.Product) (*Report, error) {
	reasons := make([]string, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Concurrency)
	for i, p := range products {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reasons[i] = c.checkURL(gctx, p.ImageURL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Total: len(products), Failures: []Failure{}}
	for i, p := range products {
		if reasons[i] == "" {
			report.OK++
			continue
		}
		report.Failures = append(report.Failures, Failure{
			ID:       p.ID,
			Title:    p.Title,
			ImageURL: p.ImageURL,
			Reason:   reasons[i],
		})
	}
	return report, nil
}

// checkURL returns "" when url serves an image, or why it does not.
// Servers that reject HEAD get a GET.
func (c *ImageChecker) checkURL(ctx context.Context, url string) string {
	if strings.TrimSpace(url) == "" {
		return "empty"
	}
	reason := c.request(ctx, http.MethodHead, url)
	if reason == "" {
		return ""
	}
	return c.request(ctx, http.MethodGet, url)
}

func (c *ImageChecker) request(ctx context.Context, method, url string) string {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err.Error()
	}
	req.Header.Set("User-Agent", checkUserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err.Error()
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	if resp.StatusCode != http.StatusOK {
		return strconv.Itoa(resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "image") {
		return "not an image: " + resp.Header.Get("Content-Type")
	}
	return ""
}

// ApplyPlaceholders sets url as the image of every product listed in the
// report's failures and returns how many changed.
func ApplyPlaceholders(products []core.Product, report *Report, url string) int {
	failed := make(map[string]bool, len(report.Failures))
	for _, f := range report.Failures {
		if f.ID != "" {
			failed[core.CanonicalID(f.ID)] = true
		}
	}

	changed := 0
	for i := range products {
		if failed[products[i].ID] && products[i].ImageURL != url {
			products[i].ImageURL = url
			changed++
		}
	}
	return changed
}
