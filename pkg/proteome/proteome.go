// Package proteome holds the in-memory protein model shared by the file
// adapters, the remote clients and the persistence layer.
package proteome

// Protein is an identified residue sequence. Values are immutable; the
// sequence alphabet is not validated.
type Protein struct {
	identifier  string
	sequence    string
	description string
}

func NewProtein(identifier, sequence string) Protein {
	return Protein{identifier: identifier, sequence: sequence}
}

func (p Protein) ID() string          { return p.identifier }
func (p Protein) Sequence() string    { return p.sequence }
func (p Protein) Description() string { return p.description }
func (p Protein) Len() int            { return len(p.sequence) }

// WithDescription returns a copy of p carrying the given free-text description.
func (p Protein) WithDescription(description string) Protein {
	p.description = description
	return p
}

// Proteome is a collection of proteins keyed by identifier. Adding a protein
// whose identifier is already present replaces the stored entry in place, so
// iteration order is the order in which identifiers were first seen.
//
// A Proteome is not safe for concurrent mutation.
type Proteome struct {
	byID  map[string]int
	order []Protein
}

// NewProteome builds a proteome from proteins in order. Later duplicates
// overwrite earlier ones.
func NewProteome(proteins ...Protein) *Proteome {
	p := &Proteome{
		byID:  make(map[string]int, len(proteins)),
		order: make([]Protein, 0, len(proteins)),
	}
	for _, pr := range proteins {
		p.Add(pr)
	}
	return p
}

// Add inserts pr, replacing any protein with the same identifier. It reports
// whether an existing entry was replaced.
func (p *Proteome) Add(pr Protein) bool {
	if p.byID == nil {
		p.byID = make(map[string]int)
	}
	if i, ok := p.byID[pr.ID()]; ok {
		p.order[i] = pr
		return true
	}
	p.byID[pr.ID()] = len(p.order)
	p.order = append(p.order, pr)
	return false
}

// Get returns the protein stored under identifier or an ErrNotFound error.
func (p *Proteome) Get(identifier string) (Protein, error) {
	i, ok := p.byID[identifier]
	if !ok {
		return Protein{}, NotFound(identifier, "", "That protein does not belong to this proteome!")
	}
	return p.order[i], nil
}

func (p *Proteome) Has(identifier string) bool {
	_, ok := p.byID[identifier]
	return ok
}

// Len returns the number of distinct identifiers.
func (p *Proteome) Len() int { return len(p.order) }

// Proteins returns a snapshot of the proteins in iteration order. Later
// mutations of the proteome are not reflected in the returned slice.
func (p *Proteome) Proteins() []Protein {
	out := make([]Protein, len(p.order))
	copy(out, p.order)
	return out
}

// IDs returns the identifiers in iteration order.
func (p *Proteome) IDs() []string {
	ids := make([]string, len(p.order))
	for i, pr := range p.order {
		ids[i] = pr.ID()
	}
	return ids
}

// Map returns a copy of the proteome keyed by identifier.
func (p *Proteome) Map() map[string]Protein {
	m := make(map[string]Protein, len(p.order))
	for _, pr := range p.order {
		m[pr.ID()] = pr
	}
	return m
}
