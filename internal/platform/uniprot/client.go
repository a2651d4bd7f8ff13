// Package uniprot fetches protein sequence records from the UniProt REST
// service in FASTA format.
package uniprot

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/protkit/protkit/internal/platform/seqio"
	"github.com/protkit/protkit/pkg/proteome"
)

// DefaultBaseURL is the UniProt entry endpoint. Identifiers are appended
// verbatim.
const DefaultBaseURL = "https://www.uniprot.org/uniprot/"

// MsgUnknownIdentifier is the message carried by the not-found error
// returned when UniProt rejects an identifier.
const MsgUnknownIdentifier = "Identifier does not exist"

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the UniProt endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client issues blocking GET requests against UniProt. It does not retry
// or cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// EntryURL returns the request URL for identifier.
func (c *Client) EntryURL(identifier string) string {
	return c.baseURL + identifier + "&format=fasta"
}

// GetProteinSequenceByID fetches identifier and returns the first FASTA
// record of the response. Any further records are discarded.
//
// A non-2xx response yields a not-found error with MsgUnknownIdentifier; a
// 2xx response without records yields a plain not-found error.
func (c *Client) GetProteinSequenceByID(ctx context.Context, identifier string) (seqio.Record, error) {
	url := c.EntryURL(identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return seqio.Record{}, proteome.Transport(url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return seqio.Record{}, proteome.Transport(url, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("identifier", identifier).
		Int("status", resp.StatusCode).
		Msg("uniprot response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return seqio.Record{}, proteome.NotFound(identifier, url, MsgUnknownIdentifier)
	}

	it := seqio.NewFASTAScanner(resp.Body, url)
	if !it.Next() {
		if err := it.Err(); err != nil {
			return seqio.Record{}, err
		}
		return seqio.Record{}, proteome.NotFound(identifier, url, "no sequence records in response")
	}
	rec := it.Record()
	it.Close()
	return rec, nil
}

// FetchProtein fetches identifier and converts the record into a protein
// keyed by the record's own ID (for example "sp|Q99J83|ATG5_MOUSE").
func (c *Client) FetchProtein(ctx context.Context, identifier string) (proteome.Protein, error) {
	rec, err := c.GetProteinSequenceByID(ctx, identifier)
	if err != nil {
		return proteome.Protein{}, err
	}
	return rec.Protein(), nil
}

// FetchProteome fetches each identifier in turn. The first failure aborts
// the remaining fetches.
func (c *Client) FetchProteome(ctx context.Context, identifiers ...string) (*proteome.Proteome, error) {
	p := proteome.NewProteome()
	for _, id := range identifiers {
		pr, err := c.FetchProtein(ctx, id)
		if err != nil {
			return nil, err
		}
		p.Add(pr)
	}
	return p, nil
}
