package blast

import (
	"encoding/xml"
	"io"

	"github.com/protkit/protkit/pkg/proteome"
)

// Record is the result for one query of a BLAST XML report.
type Record struct {
	IterNum    int         `xml:"Iteration_iter-num"`
	QueryID    string      `xml:"Iteration_query-ID"`
	QueryDef   string      `xml:"Iteration_query-def"`
	QueryLen   int         `xml:"Iteration_query-len"`
	Alignments []Alignment `xml:"Iteration_hits>Hit"`
	Message    string      `xml:"Iteration_message"`
}

// Alignment is one database hit.
type Alignment struct {
	Num       int    `xml:"Hit_num"`
	HitID     string `xml:"Hit_id"`
	HitDef    string `xml:"Hit_def"`
	Accession string `xml:"Hit_accession"`
	Length    int    `xml:"Hit_len"`
	HSPs      []HSP  `xml:"Hit_hsps>Hsp"`
}

// HSP is a high-scoring segment pair within an alignment.
type HSP struct {
	Num       int     `xml:"Hsp_num"`
	BitScore  float64 `xml:"Hsp_bit-score"`
	Score     float64 `xml:"Hsp_score"`
	Evalue    float64 `xml:"Hsp_evalue"`
	QueryFrom int     `xml:"Hsp_query-from"`
	QueryTo   int     `xml:"Hsp_query-to"`
	HitFrom   int     `xml:"Hsp_hit-from"`
	HitTo     int     `xml:"Hsp_hit-to"`
	Identity  int     `xml:"Hsp_identity"`
	Positive  int     `xml:"Hsp_positive"`
	Gaps      int     `xml:"Hsp_gaps"`
	AlignLen  int     `xml:"Hsp_align-len"`
	QuerySeq  string  `xml:"Hsp_qseq"`
	HitSeq    string  `xml:"Hsp_hseq"`
	Midline   string  `xml:"Hsp_midline"`
}

type blastOutput struct {
	XMLName    xml.Name `xml:"BlastOutput"`
	Program    string   `xml:"BlastOutput_program"`
	Database   string   `xml:"BlastOutput_db"`
	Iterations []Record `xml:"BlastOutput_iterations>Iteration"`
}

// ParseXML decodes a BLAST XML report into one record per query.
func ParseXML(r io.Reader) ([]Record, error) {
	var out blastOutput
	if err := xml.NewDecoder(r).Decode(&out); err != nil {
		return nil, proteome.Parse("blast xml", err)
	}
	return out.Iterations, nil
}
