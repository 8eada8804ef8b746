// Package holiday looks up public holidays from an OpenHolidays-compatible
// REST API, caching whole years in memory and optionally on disk.
package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL  = "https://openholidaysapi.org"
	DefaultTimeout  = 10 * time.Second
	defaultFailures = 3
	defaultCooldown = 5 * time.Minute
)

// Holiday is one public holiday, possibly spanning several days.
type Holiday struct {
	Name       string    `json:"name"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Nationwide bool      `json:"nationwide"`
}

// Covers reports whether day falls within the holiday, by calendar date.
func (h Holiday) Covers(day time.Time) bool {
	d := day.Format(time.DateOnly)
	return d >= h.Start.Format(time.DateOnly) && d <= h.End.Format(time.DateOnly)
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	CountryCode  string
	LanguageCode string
	Timeout      time.Duration

	// HTTPClient overrides the default client. Its timeout is left alone.
	HTTPClient *http.Client
	// Cache, when set, persists fetched years.
	Cache *Cache
}

// Client answers holiday questions for one country.
type Client struct {
	baseURL  string
	country  string
	language string
	http     *http.Client
	breaker  *Breaker
	cache    *Cache
	logger   *slog.Logger

	mu    sync.Mutex
	years map[int][]Holiday
}

// New creates a client. Country and language codes are upper-cased.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.CountryCode) == "" {
		return nil, errors.New("holiday: country code is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "holiday")

	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("holiday: invalid base url: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	language := strings.ToUpper(opts.LanguageCode)
	if language == "" {
		language = "EN"
	}

	return &Client{
		baseURL:  strings.TrimRight(base, "/"),
		country:  strings.ToUpper(opts.CountryCode),
		language: language,
		http:     hc,
		breaker:  NewBreaker(defaultFailures, defaultCooldown, logger),
		cache:    opts.Cache,
		logger:   logger,
		years:    make(map[int][]Holiday),
	}, nil
}

// IsHoliday reports whether day is a nationwide public holiday. Any lookup
// failure returns false together with the error.
func (c *Client) IsHoliday(ctx context.Context, day time.Time) (bool, error) {
	list, err := c.List(ctx, day.Year())
	if err != nil {
		return false, err
	}
	for _, h := range list {
		if h.Nationwide && h.Covers(day) {
			return true, nil
		}
	}
	return false, nil
}

// List returns every public holiday of the year, regional ones included.
func (c *Client) List(ctx context.Context, year int) ([]Holiday, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if list, ok := c.years[year]; ok {
		return list, nil
	}

	if c.cache != nil {
		list, ok, err := c.cache.Load(ctx, c.country, c.language, year)
		if err != nil {
			c.logger.Warn("holiday cache read failed", "year", year, "error", err)
		} else if ok {
			c.years[year] = list
			return list, nil
		}
	}

	var list []Holiday
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		list, err = c.fetch(ctx, year)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.years[year] = list
	c.logger.Info("fetched public holidays", "country", c.country, "year", year, "count", len(list))
	if c.cache != nil {
		if err := c.cache.Store(ctx, c.country, c.language, year, list); err != nil {
			c.logger.Warn("holiday cache write failed", "year", year, "error", err)
		}
	}
	return list, nil
}

type apiName struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

type apiHoliday struct {
	StartDate  string    `json:"startDate"`
	EndDate    string    `json:"endDate"`
	Nationwide bool      `json:"nationwide"`
	Name       []apiName `json:"name"`
}

func (c *Client) fetch(ctx context.Context, year int) ([]Holiday, error) {
	q := url.Values{}
	q.Set("countryIsoCode", c.country)
	q.Set("languageIsoCode", c.language)
	q.Set("validFrom", fmt.Sprintf("%04d-01-01", year))
	q.Set("validTo", fmt.Sprintf("%04d-12-31", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/PublicHolidays?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return nil, fmt.Errorf("holiday request: unexpected status %d", resp.StatusCode)
	}

	var raw []apiHoliday
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode holidays: %w", err)
	}

	out := make([]Holiday, 0, len(raw))
	for _, r := range raw {
		start, err := time.Parse(time.DateOnly, r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("decode holidays: start date %q: %w", r.StartDate, err)
		}
		end := start
		if r.EndDate != "" {
			if end, err = time.Parse(time.DateOnly, r.EndDate); err != nil {
				return nil, fmt.Errorf("decode holidays: end date %q: %w", r.EndDate, err)
			}
		}
		out = append(out, Holiday{
			Name:       pickName(r.Name, c.language),
			Start:      start,
			End:        end,
			Nationwide: r.Nationwide,
		})
	}
	return out, nil
}

func pickName(names []apiName, language string) string {
	for _, n := range names {
		if strings.EqualFold(n.Language, language) {
			return n.Text
		}
	}
	if len(names) > 0 {
		return names[0].Text
	}
	return ""
}

// BreakerState exposes the state of the request circuit breaker.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}
