package protein

import (
	"time"

	"github.com/google/uuid"

	"github.com/protkit/protkit/pkg/proteome"
)

// StoredProtein maps to the protein table.
type StoredProtein struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Identifier  string    `db:"identifier" json:"identifier"`
	Sequence    string    `db:"sequence" json:"sequence"`
	Description string    `db:"description" json:"description,omitempty"`
	Source      string    `db:"source" json:"source,omitempty"`
	Length      int       `db:"length" json:"length"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (s *StoredProtein) Protein() proteome.Protein {
	return proteome.NewProtein(s.Identifier, s.Sequence).WithDescription(s.Description)
}

func storedFromProtein(p proteome.Protein, source string) *StoredProtein {
	return &StoredProtein{
		Identifier:  p.ID(),
		Sequence:    p.Sequence(),
		Description: p.Description(),
		Source:      source,
		Length:      p.Len(),
	}
}
