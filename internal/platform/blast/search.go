package blast

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/protkit/protkit/pkg/proteome"
)

// Program and database every Search submits against.
const (
	Program  = "blastp"
	Database = "swissprot"
)

// Submitter runs one remote search. *Client implements it.
type Submitter interface {
	Submit(ctx context.Context, program, database, query string, opts SearchOptions) (*Handle, error)
}

// Search submits every protein of a proteome as a blastp query against
// swissprot.
type Search struct {
	proteome *proteome.Proteome
	opts     SearchOptions
	client   Submitter
	logger   zerolog.Logger
}

func NewSearch(p *proteome.Proteome, opts SearchOptions, client Submitter) *Search {
	return &Search{proteome: p, opts: opts, client: client, logger: zerolog.Nop()}
}

// SetLogger sets the logger used to report each submission.
func (s *Search) SetLogger(l zerolog.Logger) { s.logger = l }

// Run submits the proteins one at a time in proteome iteration order and
// returns one handle per protein in the same order. The first failed
// submission aborts the run; no partial results are returned.
func (s *Search) Run(ctx context.Context) ([]*Handle, error) {
	proteins := s.proteome.Proteins()
	handles := make([]*Handle, 0, len(proteins))
	for i, p := range proteins {
		s.logger.Info().
			Int("n", i+1).
			Int("of", len(proteins)).
			Str("identifier", p.ID()).
			Msg("submitting blast search")

		h, err := s.client.Submit(ctx, Program, Database, p.Sequence(), s.opts)
		if err != nil {
			return nil, err
		}
		h.QueryID = p.ID()
		handles = append(handles, h)
	}
	return handles, nil
}
