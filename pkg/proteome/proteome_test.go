package proteome

import (
	"errors"
	"testing"
)

const atg = "MGWVGKKKSTAGQLAGTANELTKEVLERAVHRESPVIRPDVVVGIPAVDRRPKQ"

func TestProtein_Accessors(t *testing.T) {
	p := NewProtein("MyID", atg)
	if p.ID() != "MyID" {
		t.Errorf("expected id 'MyID', got %q", p.ID())
	}
	if p.Sequence() != atg {
		t.Errorf("unexpected sequence %q", p.Sequence())
	}
	if p.Len() != len(atg) {
		t.Errorf("expected length %d, got %d", len(atg), p.Len())
	}
	if p.Description() != "" {
		t.Errorf("expected empty description, got %q", p.Description())
	}
}

func TestProtein_WithDescription(t *testing.T) {
	p := NewProtein("MyID", "MASL")
	d := p.WithDescription("Autophagy protein 5")
	if d.Description() != "Autophagy protein 5" {
		t.Errorf("unexpected description %q", d.Description())
	}
	if p.Description() != "" {
		t.Error("expected original protein to be unchanged")
	}
}

func TestNewProteome(t *testing.T) {
	proteins := []Protein{
		NewProtein("A", "MAAA"),
		NewProtein("B", "MBBB"),
		NewProtein("C", "MCCC"),
	}
	p := NewProteome(proteins...)
	if p.Len() != len(proteins) {
		t.Fatalf("expected %d proteins, got %d", len(proteins), p.Len())
	}
	for _, want := range proteins {
		got, err := p.Get(want.ID())
		if err != nil {
			t.Fatalf("Get(%q): %v", want.ID(), err)
		}
		if got.Sequence() != want.Sequence() {
			t.Errorf("Get(%q): expected %q, got %q", want.ID(), want.Sequence(), got.Sequence())
		}
	}
}

func TestNewProteome_Empty(t *testing.T) {
	p := NewProteome()
	if p.Len() != 0 {
		t.Errorf("expected empty proteome, got %d", p.Len())
	}
	if len(p.Proteins()) != 0 {
		t.Error("expected no proteins")
	}
}

func TestProteome_ZeroValueAdd(t *testing.T) {
	var p Proteome
	if p.Add(NewProtein("A", "M")) {
		t.Error("expected first add not to replace")
	}
	if !p.Has("A") {
		t.Error("expected A to be present")
	}
}

func TestProteome_DuplicateOverwrites(t *testing.T) {
	p := NewProteome(
		NewProtein("A", "FIRST"),
		NewProtein("B", "MBBB"),
		NewProtein("A", "SECOND"),
	)
	if p.Len() != 2 {
		t.Fatalf("expected 2 distinct ids, got %d", p.Len())
	}
	got, _ := p.Get("A")
	if got.Sequence() != "SECOND" {
		t.Errorf("expected last write to win, got %q", got.Sequence())
	}
	ids := p.IDs()
	if ids[0] != "A" || ids[1] != "B" {
		t.Errorf("expected overwritten entry to keep its position, got %v", ids)
	}
}

func TestProteome_AddReportsReplace(t *testing.T) {
	p := NewProteome()
	if p.Add(NewProtein("A", "M")) {
		t.Error("expected insert, got replace")
	}
	if !p.Add(NewProtein("A", "MM")) {
		t.Error("expected replace, got insert")
	}
}

func TestProteome_GetMissing(t *testing.T) {
	p := NewProteome(NewProtein("A", "M"))
	_, err := p.Get("missing")
	if err == nil {
		t.Fatal("expected error for missing identifier")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Identifier != "missing" {
		t.Errorf("expected identifier 'missing', got %q", perr.Identifier)
	}
	if perr.Error() != "That protein does not belong to this proteome!" {
		t.Errorf("unexpected message %q", perr.Error())
	}
}

func TestProteome_ProteinsIsSnapshot(t *testing.T) {
	p := NewProteome(NewProtein("A", "M"))
	snap := p.Proteins()
	p.Add(NewProtein("B", "M"))
	if len(snap) != 1 {
		t.Errorf("expected snapshot to keep 1 protein, got %d", len(snap))
	}
	snap[0] = NewProtein("Z", "Z")
	if got, _ := p.Get("A"); got.Sequence() != "M" {
		t.Error("expected proteome to be unaffected by snapshot mutation")
	}
}

func TestProteome_Map(t *testing.T) {
	p := NewProteome(NewProtein("MyID", "MASLMLSLGSTSLLPREINKDKLKL"))
	m := p.Map()
	got, ok := m["MyID"]
	if !ok {
		t.Fatal("expected MyID in map")
	}
	if got.Sequence() != "MASLMLSLGSTSLLPREINKDKLKL" {
		t.Errorf("unexpected sequence %q", got.Sequence())
	}
	delete(m, "MyID")
	if !p.Has("MyID") {
		t.Error("expected map to be a copy")
	}
}

func TestError_Kinds(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"transport", Transport("https://example.org", cause), ErrTransport, "request https://example.org: connection refused"},
		{"parse", Parse("proteins.faa", cause), ErrParse, "parse proteins.faa: connection refused"},
		{"parse no source", Parse("", cause), ErrParse, "parse: connection refused"},
		{"not found", NotFound("L90J53", "", "Identifier does not exist"), ErrNotFound, "Identifier does not exist"},
		{"not found default", NotFound("x", "", ""), ErrNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("expected kind %v", tt.kind)
			}
			if tt.err.Error() != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
	if !errors.Is(Transport("u", cause), cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if errors.Is(Parse("f", cause), ErrNotFound) {
		t.Error("parse error must not match ErrNotFound")
	}
}
