package protein

import "context"

// ProteinRepository stores proteins keyed by their identifier. Upsert on an
// existing identifier replaces the row and keeps its original position.
type ProteinRepository interface {
	Upsert(ctx context.Context, p *StoredProtein) error
	GetByIdentifier(ctx context.Context, identifier string) (*StoredProtein, error)
	List(ctx context.Context, limit, offset int) ([]*StoredProtein, int, error)
	Delete(ctx context.Context, identifier string) error
}
