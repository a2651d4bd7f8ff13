package seqio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/protkit/protkit/pkg/proteome"
)

// Column names used when a proteome is flattened into a table.
const (
	ColumnIdentifier = "identifier"
	ColumnSequence   = "sequence"
)

// Table is a row/column frame read from or written to delimited text.
// Index holds row labels when the source carried an index column.
type Table struct {
	Header []string
	Rows   [][]string
	Index  []string
}

// Shape returns the row and column counts, excluding header and index.
func (t *Table) Shape() (rows, cols int) {
	return len(t.Rows), len(t.Header)
}

// Column returns the values of the named column, or false if absent.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

func (t *Table) columnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// CSVOptions controls how delimited text is parsed.
type CSVOptions struct {
	// Delimiter separates fields. Zero selects ','.
	Delimiter rune
	// NoHeader treats the first line as data; columns are named "0", "1", ...
	NoHeader bool
	// Comment, when non-zero, marks lines to skip.
	Comment rune
	// IndexColumn names a column to lift out of the frame into Table.Index.
	IndexColumn string
	// TrimLeadingSpace ignores leading white space in a field.
	TrimLeadingSpace bool
}

// CSVReader parses a delimited table from a stream.
type CSVReader struct {
	src    io.Reader
	source string
	opts   CSVOptions
}

func NewCSVReader(r io.Reader, opts CSVOptions) *CSVReader {
	return &CSVReader{src: r, opts: opts}
}

func (r *CSVReader) Read() (*Table, error) {
	cr := csv.NewReader(r.src)
	cr.Comma = delimiter(r.opts.Delimiter)
	cr.Comment = r.opts.Comment
	cr.TrimLeadingSpace = r.opts.TrimLeadingSpace

	records, err := cr.ReadAll()
	if err != nil {
		return nil, proteome.Parse(r.source, err)
	}

	t := &Table{}
	if len(records) == 0 {
		return t, nil
	}
	if r.opts.NoHeader {
		t.Header = make([]string, len(records[0]))
		for i := range t.Header {
			t.Header[i] = strconv.Itoa(i)
		}
		t.Rows = records
	} else {
		t.Header = records[0]
		t.Rows = records[1:]
	}

	if r.opts.IndexColumn != "" {
		if err := t.liftIndex(r.opts.IndexColumn); err != nil {
			return nil, proteome.Parse(r.source, err)
		}
	}
	return t, nil
}

func (t *Table) liftIndex(name string) error {
	idx := t.columnIndex(name)
	if idx < 0 {
		return fmt.Errorf("index column %q not in header", name)
	}
	t.Index = make([]string, len(t.Rows))
	for i, row := range t.Rows {
		t.Index[i] = row[idx]
		t.Rows[i] = append(row[:idx:idx], row[idx+1:]...)
	}
	t.Header = append(t.Header[:idx:idx], t.Header[idx+1:]...)
	return nil
}

// ReadCSVFile reads a delimited table from path.
func ReadCSVFile(path string, opts CSVOptions) (*Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer fh.Close()
	r := NewCSVReader(fh, opts)
	r.source = path
	return r.Read()
}

// CSVWriterOptions controls how a table is serialised.
type CSVWriterOptions struct {
	// Delimiter separates fields. Zero selects ','.
	Delimiter rune
	// Index emits a leading row-label column with an empty header. Labels
	// come from Table.Index, or are row numbers starting at 0.
	Index bool
	// NoHeader omits the header line.
	NoHeader bool
	// UseCRLF terminates lines with \r\n.
	UseCRLF bool
}

// CSVWriter serialises a table to a stream.
type CSVWriter struct {
	dst  io.Writer
	opts CSVWriterOptions
}

func NewCSVWriter(w io.Writer, opts CSVWriterOptions) *CSVWriter {
	return &CSVWriter{dst: w, opts: opts}
}

func (w *CSVWriter) Write(t *Table) error {
	cw := csv.NewWriter(w.dst)
	cw.Comma = delimiter(w.opts.Delimiter)
	cw.UseCRLF = w.opts.UseCRLF

	if !w.opts.NoHeader {
		header := t.Header
		if w.opts.Index {
			header = append([]string{""}, header...)
		}
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for i, row := range t.Rows {
		if w.opts.Index {
			label := strconv.Itoa(i)
			if i < len(t.Index) {
				label = t.Index[i]
			}
			row = append([]string{label}, row...)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t to path, creating or truncating it.
func WriteCSVFile(path string, t *Table, opts CSVWriterOptions) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return NewCSVWriter(fh, opts).Write(t)
}

// TableFromProteome flattens p into identifier/sequence rows in iteration order.
func TableFromProteome(p *proteome.Proteome) *Table {
	t := &Table{Header: []string{ColumnIdentifier, ColumnSequence}}
	for _, pr := range p.Proteins() {
		t.Rows = append(t.Rows, []string{pr.ID(), pr.Sequence()})
	}
	return t
}

// ProteomeFromTable builds a proteome from the identifier and sequence
// columns of t. Other columns are ignored.
func ProteomeFromTable(t *Table) (*proteome.Proteome, error) {
	ids, ok := t.Column(ColumnIdentifier)
	if !ok {
		return nil, proteome.Parse("", fmt.Errorf("missing %q column", ColumnIdentifier))
	}
	seqs, ok := t.Column(ColumnSequence)
	if !ok {
		return nil, proteome.Parse("", fmt.Errorf("missing %q column", ColumnSequence))
	}
	p := proteome.NewProteome()
	for i := range ids {
		p.Add(proteome.NewProtein(ids[i], seqs[i]))
	}
	return p, nil
}

func delimiter(r rune) rune {
	if r == 0 {
		return ','
	}
	return r
}
