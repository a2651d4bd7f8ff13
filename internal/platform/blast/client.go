// Package blast submits protein similarity searches to the NCBI BLAST URL
// API and returns the raw reports as result handles. Report parsing is
// available through ParseXML but is left to the caller.
package blast

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/protkit/protkit/pkg/proteome"
)

const (
	DefaultBaseURL      = "https://blast.ncbi.nlm.nih.gov/Blast.cgi"
	DefaultPollInterval = 60 * time.Second

	// Search status values reported by the SearchInfo endpoint.
	StatusWaiting = "WAITING"
	StatusReady   = "READY"
	StatusFailed  = "FAILED"
	StatusUnknown = "UNKNOWN"
)

var (
	ridPattern    = regexp.MustCompile(`RID = (\S+)`)
	rtoePattern   = regexp.MustCompile(`RTOE = (\d+)`)
	statusPattern = regexp.MustCompile(`Status=(\w+)`)
)

// SearchOptions are forwarded to the Put request. Zero values are omitted
// and the service defaults apply.
type SearchOptions struct {
	// EntrezQuery restricts the database, e.g. "Arabidopsis thaliana[organism]".
	EntrezQuery                string
	Expect                     float64
	HitlistSize                int
	Alignments                 int
	Descriptions               int
	MatrixName                 string
	WordSize                   int
	GapCosts                   string
	Filter                     string
	CompositionBasedStatistics string
	// FormatType selects the report format fetched once the search is
	// ready. Empty selects XML.
	FormatType string
}

func (o SearchOptions) putValues(program, database, query string) url.Values {
	v := url.Values{}
	v.Set("CMD", "Put")
	v.Set("PROGRAM", program)
	v.Set("DATABASE", database)
	v.Set("QUERY", query)
	if o.EntrezQuery != "" {
		v.Set("ENTREZ_QUERY", o.EntrezQuery)
	}
	if o.Expect > 0 {
		v.Set("EXPECT", strconv.FormatFloat(o.Expect, 'g', -1, 64))
	}
	if o.HitlistSize > 0 {
		v.Set("HITLIST_SIZE", strconv.Itoa(o.HitlistSize))
	}
	if o.Alignments > 0 {
		v.Set("ALIGNMENTS", strconv.Itoa(o.Alignments))
	}
	if o.Descriptions > 0 {
		v.Set("DESCRIPTIONS", strconv.Itoa(o.Descriptions))
	}
	if o.MatrixName != "" {
		v.Set("MATRIX_NAME", o.MatrixName)
	}
	if o.WordSize > 0 {
		v.Set("WORD_SIZE", strconv.Itoa(o.WordSize))
	}
	if o.GapCosts != "" {
		v.Set("GAPCOSTS", o.GapCosts)
	}
	if o.Filter != "" {
		v.Set("FILTER", o.Filter)
	}
	if o.CompositionBasedStatistics != "" {
		v.Set("COMPOSITION_BASED_STATISTICS", o.CompositionBasedStatistics)
	}
	return v
}

func (o SearchOptions) formatType() string {
	if o.FormatType == "" {
		return "XML"
	}
	return o.FormatType
}

// Handle is the raw report of one finished search. It reads like a stream
// positioned at the start of the report.
type Handle struct {
	RID      string
	QueryID  string
	Program  string
	Database string

	data []byte
	r    *bytes.Reader
}

func newHandle(rid, queryID, program, database string, data []byte) *Handle {
	return &Handle{
		RID:      rid,
		QueryID:  queryID,
		Program:  program,
		Database: database,
		data:     data,
		r:        bytes.NewReader(data),
	}
}

func (h *Handle) Read(p []byte) (int, error) { return h.r.Read(p) }

// Bytes returns the complete report regardless of read position.
func (h *Handle) Bytes() []byte { return h.data }

// NewReader returns an independent reader over the complete report.
func (h *Handle) NewReader() io.Reader { return bytes.NewReader(h.data) }

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPollInterval sets the delay between status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSleep replaces the wait between status checks.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// Client talks to the BLAST URL API. Each Submit blocks until the report
// is available.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       zerolog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{},
		pollInterval: DefaultPollInterval,
		logger:       zerolog.Nop(),
		sleep:        sleepContext,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submit runs one search: it queues the query, waits until the service
// reports the search ready, and downloads the report.
func (c *Client) Submit(ctx context.Context, program, database, query string, opts SearchOptions) (*Handle, error) {
	rid, rtoe, err := c.put(ctx, opts.putValues(program, database, query))
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("rid", rid).Dur("estimate", rtoe).Msg("blast search queued")

	wait := rtoe
	for {
		if wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return nil, proteome.Transport(c.baseURL, err)
			}
		}
		wait = c.pollInterval

		status, err := c.status(ctx, rid)
		if err != nil {
			return nil, err
		}
		switch status {
		case StatusReady:
			data, err := c.fetch(ctx, rid, opts.formatType())
			if err != nil {
				return nil, err
			}
			return newHandle(rid, "", program, database, data), nil
		case StatusWaiting:
			continue
		case StatusUnknown:
			return nil, proteome.NotFound(rid, c.baseURL, fmt.Sprintf("blast search %s expired or unknown", rid))
		default:
			return nil, proteome.Transport(c.baseURL, fmt.Errorf("blast search %s status %s", rid, status))
		}
	}
}

func (c *Client) put(ctx context.Context, form url.Values) (string, time.Duration, error) {
	body, err := c.do(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	m := ridPattern.FindSubmatch(body)
	if m == nil {
		return "", 0, proteome.Parse(c.baseURL, fmt.Errorf("no RID in submission response"))
	}
	var rtoe time.Duration
	if t := rtoePattern.FindSubmatch(body); t != nil {
		secs, _ := strconv.Atoi(string(t[1]))
		rtoe = time.Duration(secs) * time.Second
	}
	return string(m[1]), rtoe, nil
}

func (c *Client) status(ctx context.Context, rid string) (string, error) {
	q := url.Values{}
	q.Set("CMD", "Get")
	q.Set("FORMAT_OBJECT", "SearchInfo")
	q.Set("RID", rid)
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	m := statusPattern.FindSubmatch(body)
	if m == nil {
		return "", proteome.Parse(c.baseURL, fmt.Errorf("no status for search %s", rid))
	}
	return string(m[1]), nil
}

func (c *Client) fetch(ctx context.Context, rid, format string) ([]byte, error) {
	q := url.Values{}
	q.Set("CMD", "Get")
	q.Set("FORMAT_TYPE", format)
	q.Set("RID", rid)
	return c.do(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, proteome.Transport(c.baseURL, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, proteome.Transport(c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, proteome.Transport(c.baseURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, proteome.Transport(c.baseURL, fmt.Errorf("non-2xx response: %d", resp.StatusCode))
	}
	return data, nil
}
