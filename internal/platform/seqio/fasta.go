// Package seqio reads and writes the file formats protkit exchanges with
// researchers: FASTA sequence files and delimited tables.
package seqio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/rs/zerolog"

	"github.com/protkit/protkit/pkg/proteome"
)

// DefaultLineWidth is the residue count per line written by FASTAWriter.
const DefaultLineWidth = 60

// Record is one parsed FASTA entry. ID is the header up to the first blank,
// Description the remainder of the header line.
type Record struct {
	ID          string
	Description string
	Sequence    string
}

// Header returns the full header line without the leading '>'.
func (r Record) Header() string {
	if r.Description == "" {
		return r.ID
	}
	return r.ID + " " + r.Description
}

// Protein converts the record into a model protein keyed by its ID.
func (r Record) Protein() proteome.Protein {
	return proteome.NewProtein(r.ID, r.Sequence).WithDescription(r.Description)
}

// RecordIterator walks the records of one FASTA source. It is single-pass:
// once exhausted, the source must be reopened to read the records again.
// The underlying file is closed when iteration ends or Close is called.
type RecordIterator struct {
	r      *fasta.Reader
	closer io.Closer
	source string
	cur    Record
	err    error
	done   bool
}

// NewFASTAScanner iterates the FASTA records in r. The caller keeps
// ownership of r.
func NewFASTAScanner(r io.Reader, source string) *RecordIterator {
	return newIterator(r, nil, source)
}

func newIterator(r io.Reader, closer io.Closer, source string) *RecordIterator {
	template := linear.NewSeq("", nil, alphabet.Protein)
	return &RecordIterator{
		r:      fasta.NewReader(&preambleSkipper{br: bufio.NewReader(r)}, template),
		closer: closer,
		source: source,
	}
}

// preambleSkipper drops every line before the first header, so comments
// or a non-FASTA body yield no records instead of a parse error.
type preambleSkipper struct {
	br      *bufio.Reader
	started bool
}

func (p *preambleSkipper) Read(b []byte) (int, error) {
	for !p.started {
		c, err := p.br.Peek(1)
		if err != nil {
			return 0, err
		}
		if c[0] == '>' {
			p.started = true
			break
		}
		if _, err := p.br.ReadString('\n'); err != nil {
			return 0, err
		}
	}
	return p.br.Read(b)
}

// Next advances to the next record. It returns false at the end of input or
// on the first error, which is then available from Err.
func (it *RecordIterator) Next() bool {
	if it.done {
		return false
	}
	s, err := it.r.Read()
	if s != nil && (err == nil || err == io.EOF) {
		it.cur = recordFromSeq(s)
		if err == io.EOF {
			it.finish(nil)
		}
		return true
	}
	if err == io.EOF {
		it.finish(nil)
		return false
	}
	it.finish(proteome.Parse(it.source, err))
	return false
}

// Record returns the record loaded by the last successful Next.
func (it *RecordIterator) Record() Record { return it.cur }

func (it *RecordIterator) Err() error { return it.err }

// Close releases the underlying file. It is safe to call more than once.
func (it *RecordIterator) Close() error {
	if it.done {
		return nil
	}
	it.done = true
	return it.closeSource()
}

func (it *RecordIterator) finish(err error) {
	it.done = true
	it.err = err
	if cerr := it.closeSource(); cerr != nil && it.err == nil {
		it.err = cerr
	}
}

func (it *RecordIterator) closeSource() error {
	if it.closer == nil {
		return nil
	}
	c := it.closer
	it.closer = nil
	return c.Close()
}

// Collect drains the iterator into a slice.
func (it *RecordIterator) Collect() ([]Record, error) {
	defer it.Close()
	var out []Record
	for it.Next() {
		out = append(out, it.Record())
	}
	return out, it.Err()
}

func recordFromSeq(s seq.Sequence) Record {
	rec := Record{ID: s.Name(), Description: s.Description()}
	if ls, ok := s.(*linear.Seq); ok {
		b := make([]byte, len(ls.Seq))
		for i, l := range ls.Seq {
			b[i] = byte(l)
		}
		rec.Sequence = string(b)
	}
	return rec
}

// FASTAOption configures a FASTAReader.
type FASTAOption func(*FASTAReader)

// WithLogger sets the logger used to report duplicate identifiers.
func WithLogger(l zerolog.Logger) FASTAOption {
	return func(r *FASTAReader) { r.logger = l }
}

// FASTAReader reads a FASTA file from disk. A path of "-" reads standard
// input; a ".gz" suffix is decompressed transparently.
type FASTAReader struct {
	path   string
	logger zerolog.Logger
}

func NewFASTAReader(path string, opts ...FASTAOption) *FASTAReader {
	r := &FASTAReader{path: path, logger: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Read opens the file and returns a lazy iterator over its records.
func (r *FASTAReader) Read() (*RecordIterator, error) {
	rc, err := openSource(r.path)
	if err != nil {
		return nil, err
	}
	return newIterator(rc, rc, r.path), nil
}

// ReadAll returns every record in file order.
func (r *FASTAReader) ReadAll() ([]Record, error) {
	it, err := r.Read()
	if err != nil {
		return nil, err
	}
	return it.Collect()
}

// ReadToProteome builds a proteome keyed by record ID. Records with a
// repeated ID replace the earlier entry and are logged as a warning.
func (r *FASTAReader) ReadToProteome() (*proteome.Proteome, error) {
	it, err := r.Read()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	p := proteome.NewProteome()
	for it.Next() {
		rec := it.Record()
		if p.Add(rec.Protein()) {
			r.logger.Warn().
				Str("file", r.path).
				Str("identifier", rec.ID).
				Msg("duplicate identifier replaced earlier record")
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func openSource(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fasta: %w", err)
	}
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, proteome.Parse(path, err)
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: fh}, nil
	}
	return fh, nil
}

// FASTAWriter writes proteins as FASTA records.
type FASTAWriter struct {
	w *fasta.Writer
}

// NewFASTAWriter wraps w. A width below 1 selects DefaultLineWidth.
func NewFASTAWriter(w io.Writer, width int) *FASTAWriter {
	if width < 1 {
		width = DefaultLineWidth
	}
	return &FASTAWriter{w: fasta.NewWriter(w, width)}
}

func (fw *FASTAWriter) Write(p proteome.Protein) error {
	letters := make([]alphabet.Letter, len(p.Sequence()))
	for i := 0; i < len(p.Sequence()); i++ {
		letters[i] = alphabet.Letter(p.Sequence()[i])
	}
	s := linear.NewSeq(p.ID(), letters, alphabet.Protein)
	s.Desc = p.Description()
	if _, err := fw.w.Write(s); err != nil {
		return fmt.Errorf("write fasta record %s: %w", p.ID(), err)
	}
	return nil
}

// WriteProteome writes every protein in iteration order.
func (fw *FASTAWriter) WriteProteome(p *proteome.Proteome) error {
	for _, pr := range p.Proteins() {
		if err := fw.Write(pr); err != nil {
			return err
		}
	}
	return nil
}

// WriteFASTAFile writes p to path, creating or truncating it.
func WriteFASTAFile(path string, p *proteome.Proteome, width int) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fasta: %w", err)
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return NewFASTAWriter(fh, width).WriteProteome(p)
}
