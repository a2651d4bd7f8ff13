package seqio

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/protkit/protkit/pkg/proteome"
)

const (
	fastaPath = "testdata/proteins.faa"
	l7aeSeq   = "MGWVGKKKSTAGQLAGTANELTKEVLERAVHRESPVIRPDVVVGIPAVDRRPKQ"
)

func TestFASTAReader_Read(t *testing.T) {
	it, err := NewFASTAReader(fastaPath).Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	records, err := it.Collect()
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	first := records[0]
	if first.ID != "WP_003399671.1" {
		t.Errorf("expected id WP_003399671.1, got %q", first.ID)
	}
	if first.Description != "MULTISPECIES: 50S ribosomal protein L7ae [Mycobacterium]" {
		t.Errorf("unexpected description %q", first.Description)
	}
	if first.Sequence != l7aeSeq {
		t.Errorf("unexpected sequence %q", first.Sequence)
	}
}

func TestFASTAReader_MultiLineSequence(t *testing.T) {
	records, err := NewFASTAReader(fastaPath).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	want := "MSLFRRLLGREDTKPATDRPADATPATVEEIVAALRDSGVEVHEADADGLRITIPSGLLAQVEADPERLLTRLRAEGH"
	if records[1].Sequence != want {
		t.Errorf("expected joined sequence %q, got %q", want, records[1].Sequence)
	}
}

func TestRecordIterator_SinglePass(t *testing.T) {
	it, err := NewFASTAReader(fastaPath).Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	n := 0
	for it.Next() {
		n++
	}
	if n != 3 {
		t.Fatalf("expected 3 records, got %d", n)
	}
	if it.Next() {
		t.Error("expected exhausted iterator to stay exhausted")
	}
	if err := it.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := it.Close(); err != nil {
		t.Errorf("Close() after exhaustion: %v", err)
	}
}

func TestRecordIterator_CloseEarly(t *testing.T) {
	it, err := NewFASTAReader(fastaPath).Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !it.Next() {
		t.Fatal("expected a record")
	}
	if err := it.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if it.Next() {
		t.Error("expected no records after Close")
	}
}

func TestFASTAReader_ReadToProteome(t *testing.T) {
	p, err := NewFASTAReader(fastaPath).ReadToProteome()
	if err != nil {
		t.Fatalf("ReadToProteome() error: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("expected 3 proteins, got %d", p.Len())
	}
	pr, err := p.Get("WP_003399671.1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if pr.Sequence() != l7aeSeq {
		t.Errorf("unexpected sequence %q", pr.Sequence())
	}
}

func TestFASTAReader_ReadToProteome_Duplicates(t *testing.T) {
	var logs bytes.Buffer
	r := NewFASTAReader("testdata/duplicates.faa", WithLogger(zerolog.New(&logs)))
	p, err := r.ReadToProteome()
	if err != nil {
		t.Fatalf("ReadToProteome() error: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 proteins, got %d", p.Len())
	}
	pr, _ := p.Get("P1")
	if pr.Sequence() != "MCCC" {
		t.Errorf("expected last record to win, got %q", pr.Sequence())
	}
	if !strings.Contains(logs.String(), "duplicate identifier") {
		t.Errorf("expected duplicate warning in logs, got %q", logs.String())
	}
}

func TestFASTAReader_MissingFile(t *testing.T) {
	_, err := NewFASTAReader(filepath.Join(t.TempDir(), "absent.faa")).Read()
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestFASTAReader_Gzip(t *testing.T) {
	src, err := os.ReadFile(fastaPath)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "proteins.faa.gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(src)
	zw.Close()
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := NewFASTAReader(path).ReadToProteome()
	if err != nil {
		t.Fatalf("ReadToProteome() error: %v", err)
	}
	if p.Len() != 3 {
		t.Errorf("expected 3 proteins, got %d", p.Len())
	}
}

func TestFASTAReader_BadGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.faa.gz")
	if err := os.WriteFile(path, []byte("not gzip"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFASTAReader(path).Read()
	if !errors.Is(err, proteome.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestNewFASTAScanner_Empty(t *testing.T) {
	records, err := NewFASTAScanner(strings.NewReader(""), "empty").Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestNewFASTAScanner_SkipsPreamble(t *testing.T) {
	in := "; exported from the lab notebook\n\n>P1 first\nMAAA\n>P2\nMBBB\n"
	recs, err := NewFASTAScanner(strings.NewReader(in), "notebook").Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "P1" || recs[0].Sequence != "MAAA" || recs[1].ID != "P2" {
		t.Errorf("unexpected records %+v", recs)
	}
}

func TestNewFASTAScanner_NoHeaders(t *testing.T) {
	in := "<html><body>Service unavailable</body></html>\n"
	recs, err := NewFASTAScanner(strings.NewReader(in), "page").Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %+v", recs)
	}
}

func TestRecord_Header(t *testing.T) {
	r := Record{ID: "sp|Q99J83|ATG5_MOUSE", Description: "Autophagy protein 5"}
	if r.Header() != "sp|Q99J83|ATG5_MOUSE Autophagy protein 5" {
		t.Errorf("unexpected header %q", r.Header())
	}
	if (Record{ID: "x"}).Header() != "x" {
		t.Error("expected bare id header")
	}
}

func TestFASTAWriter_RoundTrip(t *testing.T) {
	in := proteome.NewProteome(
		proteome.NewProtein("MyID", "MASLMLSLGSTSLLPREINKDKLKL").WithDescription("test protein"),
		proteome.NewProtein("WP_003399671.1", l7aeSeq),
	)
	path := filepath.Join(t.TempDir(), "out.faa")
	if err := WriteFASTAFile(path, in, 10); err != nil {
		t.Fatalf("WriteFASTAFile() error: %v", err)
	}

	out, err := NewFASTAReader(path).ReadToProteome()
	if err != nil {
		t.Fatalf("ReadToProteome() error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 proteins, got %d", out.Len())
	}
	for _, want := range in.Proteins() {
		got, err := out.Get(want.ID())
		if err != nil {
			t.Fatalf("Get(%q): %v", want.ID(), err)
		}
		if got.Sequence() != want.Sequence() {
			t.Errorf("%s: expected %q, got %q", want.ID(), want.Sequence(), got.Sequence())
		}
	}
	mine, _ := out.Get("MyID")
	if mine.Description() != "test protein" {
		t.Errorf("expected description to survive, got %q", mine.Description())
	}
}
