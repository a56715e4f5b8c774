// Package listing fetches server-generated HTTP directory listing pages and
// turns them into rows of (href, date, time, size).
package listing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/bajicv/enterobase-scheme-scraper/internal/common"
	"github.com/bajicv/enterobase-scheme-scraper/internal/config"
)

const (
	// parentDirMarker is matched anywhere in the href, not only as a path
	// segment. The server never lists legitimate names containing "..".
	parentDirMarker = ".."
	// sortLinkMarker is the encoded "*.*" sort link some servers inject at
	// the top of a listing.
	sortLinkMarker = "%2A.%2A"
)

// Row is one surviving anchor of a directory listing together with the
// tokens of the text that follows it. Size is carried along but ignored by
// both callers.
type Row struct {
	Href string
	Date string
	Time string
	Size string
}

// StatusError reports a reachable URL answering outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

type Adapter struct {
	client      *http.Client
	limiter     *rate.Limiter
	userAgent   string
	checkRobots bool
	robots      map[string]*robotstxt.Group

	log *slog.Logger
}

func New(cfg *config.ClientConfig, log *slog.Logger) *Adapter {
	return &Adapter{
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		userAgent:   cfg.UserAgent,
		checkRobots: cfg.CheckRobots,
		robots:      make(map[string]*robotstxt.Group),
		log:         log.With(slog.String("item", "ListingAdapter")),
	}
}

// Fetch retrieves pageURL and returns its anchor rows in document order.
// Anchors whose href contains the parent-directory or wildcard-sort marker
// are dropped; any other anchor without a parsable trailing timestamp is a
// data-quality error, not a skipped row.
func (a *Adapter) Fetch(ctx context.Context, pageURL string) ([]Row, error) {
	resp, err := a.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", pageURL, err)
	}

	var (
		rows   []Row
		rowErr error
	)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.Contains(href, parentDirMarker) || strings.Contains(href, sortLinkMarker) {
			return true
		}

		tokens := strings.Fields(trailingText(s.Get(0)))
		if len(tokens) < 3 {
			rowErr = fmt.Errorf("%w: no modification data after %q on %s", common.ErrBadListing, href, pageURL)

			return false
		}

		rows = append(rows, Row{Href: href, Date: tokens[0], Time: tokens[1], Size: tokens[2]})

		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	a.log.Debug("Parsed listing", slog.String("url", pageURL), slog.Int("rows", len(rows)))

	return rows, nil
}

// Open performs a status-checked GET of a file URL through the same rate
// limiter and robots gate as page fetches. The caller owns the body.
func (a *Adapter) Open(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	resp, err := a.get(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (a *Adapter) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("cannot wait for rate limiter: %w", err)
	}

	if a.checkRobots {
		if err := a.allowed(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", rawURL, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()

		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

func (a *Adapter) allowed(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("cannot parse url %s: %w", rawURL, err)
	}

	group, exists := a.robots[u.Host]
	if !exists {
		group = a.fetchRobots(ctx, u)
		a.robots[u.Host] = group
	}

	if group != nil && !group.Test(u.Path) {
		return fmt.Errorf("blocked by robots.txt: %s", rawURL)
	}

	return nil
}

// fetchRobots loads the robots group for a host once per run. Any failure to
// obtain or parse robots.txt allows everything, matching crawler convention.
func (a *Adapter) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.Group {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("Cannot fetch robots.txt", slog.String("url", robotsURL), slog.Any("error", err))

		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		a.log.Warn("Cannot parse robots.txt", slog.String("url", robotsURL), slog.Any("error", err))

		return nil
	}

	return data.FindGroup("*")
}

// trailingText returns the text node that directly follows the anchor in the
// raw document. Pre-formatted listings keep the timestamp there; anything
// else yields an empty string and fails the token check upstream.
func trailingText(n *html.Node) string {
	sib := n.NextSibling
	if sib == nil || sib.Type != html.TextNode {
		return ""
	}

	return strings.ReplaceAll(sib.Data, "\r", "")
}
