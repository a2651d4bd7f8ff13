package protein

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/protkit/protkit/pkg/proteome"
)

// -- Mock Repository --

type mockProteinRepo struct {
	store   map[string]*StoredProtein
	order   []string
	failOn  string
	upserts int
}

func newMockProteinRepo() *mockProteinRepo {
	return &mockProteinRepo{store: make(map[string]*StoredProtein)}
}

func (m *mockProteinRepo) Upsert(_ context.Context, p *StoredProtein) error {
	if p.Identifier == m.failOn {
		return fmt.Errorf("connection reset")
	}
	m.upserts++
	p.Length = len(p.Sequence)
	if existing, ok := m.store[p.Identifier]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uuid.New()
		m.order = append(m.order, p.Identifier)
	}
	m.store[p.Identifier] = p
	return nil
}

func (m *mockProteinRepo) GetByIdentifier(_ context.Context, identifier string) (*StoredProtein, error) {
	p, ok := m.store[identifier]
	if !ok {
		return nil, proteome.NotFound(identifier, "", "protein not found")
	}
	return p, nil
}

func (m *mockProteinRepo) List(_ context.Context, limit, offset int) ([]*StoredProtein, int, error) {
	var r []*StoredProtein
	for i := offset; i < len(m.order) && i < offset+limit; i++ {
		r = append(r, m.store[m.order[i]])
	}
	return r, len(m.order), nil
}

func (m *mockProteinRepo) Delete(_ context.Context, identifier string) error {
	if _, ok := m.store[identifier]; !ok {
		return proteome.NotFound(identifier, "", "protein not found")
	}
	delete(m.store, identifier)
	for i, id := range m.order {
		if id == identifier {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func newTestService() (*Service, *mockProteinRepo) {
	repo := newMockProteinRepo()
	return NewService(repo), repo
}

func sampleProteome() *proteome.Proteome {
	return proteome.NewProteome(
		proteome.NewProtein("WP_003399671.1", "MGWVGKKKSTAGQLAGTANELTKEVLERAVHRESPVIRPDVVVGIPAVDRRPKQ").
			WithDescription("MULTISPECIES: 50S ribosomal protein L7ae [Mycobacterium]"),
		proteome.NewProtein("P2", "MBBB"),
		proteome.NewProtein("P3", "MCCC"),
	)
}

// -- Service Tests --

func TestImportProteome_Success(t *testing.T) {
	svc, repo := newTestService()
	n, err := svc.ImportProteome(context.Background(), sampleProteome(), "proteins.faa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 imported, got %d", n)
	}
	stored := repo.store["WP_003399671.1"]
	if stored == nil {
		t.Fatal("expected protein to be stored")
	}
	if stored.Source != "proteins.faa" {
		t.Errorf("expected source proteins.faa, got %q", stored.Source)
	}
	if stored.Length != 54 {
		t.Errorf("expected length 54, got %d", stored.Length)
	}
	if stored.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
}

func TestImportProteome_ReplacesExisting(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	svc.ImportProteome(ctx, sampleProteome(), "first")
	_, err := svc.ImportProteome(ctx, proteome.NewProteome(proteome.NewProtein("P2", "MZZZ")), "second")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.order) != 3 {
		t.Errorf("expected 3 rows, got %d", len(repo.order))
	}
	if repo.order[1] != "P2" {
		t.Errorf("expected P2 to keep its position, got order %v", repo.order)
	}
	if repo.store["P2"].Sequence != "MZZZ" {
		t.Errorf("expected last write to win, got %q", repo.store["P2"].Sequence)
	}
}

func TestImportProteome_EmptySequence(t *testing.T) {
	svc, repo := newTestService()
	p := proteome.NewProteome(proteome.NewProtein("P1", "MAAA"), proteome.NewProtein("P2", ""))
	_, err := svc.ImportProteome(context.Background(), p, "")
	if !errors.Is(err, ErrInvalidProtein) {
		t.Fatalf("expected ErrInvalidProtein, got %v", err)
	}
	if repo.upserts != 0 {
		t.Errorf("expected nothing stored, got %d upserts", repo.upserts)
	}
}

func TestImportProteome_RepoError(t *testing.T) {
	svc, repo := newTestService()
	repo.failOn = "P2"
	_, err := svc.ImportProteome(context.Background(), sampleProteome(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrInvalidProtein) {
		t.Errorf("storage failure must not be reported as invalid input: %v", err)
	}
}

func TestImportProteome_UsesTxRunner(t *testing.T) {
	svc, _ := newTestService()
	calls := 0
	svc.SetTxRunner(func(ctx context.Context, fn func(context.Context) error) error {
		calls++
		return fn(ctx)
	})
	if _, err := svc.ImportProteome(context.Background(), sampleProteome(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one transaction, got %d", calls)
	}
}

func TestGetProtein_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GetProtein(context.Background(), "missing")
	if !errors.Is(err, proteome.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProtein_EmptyIdentifier(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.GetProtein(context.Background(), ""); err == nil {
		t.Error("expected error for empty identifier")
	}
}

func TestDeleteProtein(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.ImportProteome(ctx, sampleProteome(), "")
	if err := svc.DeleteProtein(ctx, "P2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetProtein(ctx, "P2"); !errors.Is(err, proteome.ErrNotFound) {
		t.Errorf("expected deleted protein to be gone, got %v", err)
	}
	if err := svc.DeleteProtein(ctx, "P2"); !errors.Is(err, proteome.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLoadProteome(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p := proteome.NewProteome()
	for i := 0; i < loadBatchSize+7; i++ {
		p.Add(proteome.NewProtein(fmt.Sprintf("P%04d", i), "MAAA"))
	}
	if _, err := svc.ImportProteome(ctx, p, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := svc.LoadProteome(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Len() != p.Len() {
		t.Fatalf("expected %d proteins, got %d", p.Len(), loaded.Len())
	}
	ids := loaded.IDs()
	if ids[0] != "P0000" || ids[len(ids)-1] != fmt.Sprintf("P%04d", loadBatchSize+6) {
		t.Errorf("expected storage order, got first %s last %s", ids[0], ids[len(ids)-1])
	}
}

func TestLoadProteome_Empty(t *testing.T) {
	svc, _ := newTestService()
	loaded, err := svc.LoadProteome(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Len() != 0 {
		t.Errorf("expected empty proteome, got %d", loaded.Len())
	}
}
