package protein

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/protkit/protkit/pkg/proteome"
)

// ErrInvalidProtein marks input rejected before anything is stored.
var ErrInvalidProtein = errors.New("invalid protein")

// loadBatchSize is the page size LoadProteome reads the table with.
const loadBatchSize = 500

// TxRunner runs fn inside a transaction carried by the context it passes.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo   ProteinRepository
	tx     TxRunner
	logger zerolog.Logger
}

func NewService(repo ProteinRepository) *Service {
	return &Service{
		repo:   repo,
		tx:     func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) },
		logger: zerolog.Nop(),
	}
}

// SetTxRunner makes ImportProteome atomic.
func (s *Service) SetTxRunner(tx TxRunner) { s.tx = tx }
func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

// ImportProteome stores every protein of p, tagging rows with source, and
// returns the number stored.
func (s *Service) ImportProteome(ctx context.Context, p *proteome.Proteome, source string) (int, error) {
	proteins := p.Proteins()
	for _, pr := range proteins {
		if pr.ID() == "" {
			return 0, fmt.Errorf("%w: identifier is required", ErrInvalidProtein)
		}
		if pr.Sequence() == "" {
			return 0, fmt.Errorf("%w: protein %s has an empty sequence", ErrInvalidProtein, pr.ID())
		}
	}

	err := s.tx(ctx, func(ctx context.Context) error {
		for _, pr := range proteins {
			if err := s.repo.Upsert(ctx, storedFromProtein(pr, source)); err != nil {
				return fmt.Errorf("store protein %s: %w", pr.ID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int("count", len(proteins)).Str("source", source).Msg("proteome imported")
	return len(proteins), nil
}

func (s *Service) GetProtein(ctx context.Context, identifier string) (*StoredProtein, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrInvalidProtein)
	}
	return s.repo.GetByIdentifier(ctx, identifier)
}

func (s *Service) ListProteins(ctx context.Context, limit, offset int) ([]*StoredProtein, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) DeleteProtein(ctx context.Context, identifier string) error {
	if identifier == "" {
		return fmt.Errorf("%w: identifier is required", ErrInvalidProtein)
	}
	return s.repo.Delete(ctx, identifier)
}

// LoadProteome reads every stored protein into a proteome in storage order.
func (s *Service) LoadProteome(ctx context.Context) (*proteome.Proteome, error) {
	p := proteome.NewProteome()
	for offset := 0; ; offset += loadBatchSize {
		items, total, err := s.repo.List(ctx, loadBatchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list proteins: %w", err)
		}
		for _, item := range items {
			p.Add(item.Protein())
		}
		if len(items) == 0 || offset+len(items) >= total {
			return p, nil
		}
	}
}
