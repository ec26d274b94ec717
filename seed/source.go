package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	CompanyHdr         string = "Company"
	ValuationHdr       string = "Valuation ($B)"
	DateJoinedHdr      string = "Date Joined"
	CountryHdr         string = "Country"
	CityHdr            string = "City"
	IndustryHdr        string = "Industry"
	SelectInvestorsHdr string = "Select Investors"
)

// RequiredHeaders are the columns every source must provide. Others are
// ignored.
var RequiredHeaders = []string{
	CompanyHdr,
	ValuationHdr,
	DateJoinedHdr,
	CountryHdr,
	CityHdr,
	IndustryHdr,
	SelectInvestorsHdr,
}

// RawRecord is one source row before any field is transformed. The csv tags
// must match the header constants above.
type RawRecord struct {
	Company         string `csv:"Company" json:"company"`
	Valuation       string `csv:"Valuation ($B)" json:"valuation"`
	DateJoined      string `csv:"Date Joined" json:"date_joined"`
	Country         string `csv:"Country" json:"country"`
	City            string `csv:"City" json:"city"`
	Industry        string `csv:"Industry" json:"industry"`
	SelectInvestors string `csv:"Select Investors" json:"select_investors"`
}

// recordFromMap builds a RawRecord from a row keyed by header.
func recordFromMap(row map[string]string) RawRecord {
	return RawRecord{
		Company:         row[CompanyHdr],
		Valuation:       row[ValuationHdr],
		DateJoined:      row[DateJoinedHdr],
		Country:         row[CountryHdr],
		City:            row[CityHdr],
		Industry:        row[IndustryHdr],
		SelectInvestors: row[SelectInvestorsHdr],
	}
}

// Source yields raw records in order. Next returns io.EOF once the source is
// exhausted; a Source cannot be rewound.
type Source interface {
	Next() (RawRecord, error)
	Close() error
	String() string
}

func checkHeaders(header []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, h := range RequiredHeaders {
		if !have[h] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return &ParseError{
			Field: "header",
			Value: strings.Join(header, ","),
			Err:   fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", ")),
		}
	}
	return nil
}

// CSVSource streams records from CSV data with a header row.
type CSVSource struct {
	name   string
	closer io.Closer
	rows   *paddedReader
	dec    *csvutil.Decoder
}

// paddedReader reads CSV records leniently: bare quotes are kept as text and
// every record after the header is padded or cut to the header's width.
type paddedReader struct {
	cr      *csv.Reader
	width   int
	records int // data records read so far
	line    int // first line of the last data record
}

func newPaddedReader(r io.Reader) *paddedReader {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return &paddedReader{cr: cr}
}

func (p *paddedReader) Read() ([]string, error) {
	rec, err := p.cr.Read()
	if err != nil {
		return nil, err
	}
	if p.width == 0 {
		p.width = len(rec)
		return rec, nil
	}
	p.records++
	p.line, _ = p.cr.FieldPos(0)
	switch {
	case len(rec) > p.width:
		rec = rec[:p.width]
	case len(rec) < p.width:
		rec = append(rec, make([]string, p.width-len(rec))...)
	}
	return rec, nil
}

// NewCSVSource reads CSV from r. A leading UTF-8 byte order mark is dropped.
// Input without even a header row yields no records.
func NewCSVSource(name string, r io.Reader) (*CSVSource, error) {
	src := &CSVSource{name: name}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}

	rows := newPaddedReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	dec, err := csvutil.NewDecoder(rows)
	if errors.Is(err, io.EOF) {
		return src, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header of %s: %w", name, err)
	}
	if err := checkHeaders(dec.Header()); err != nil {
		return nil, err
	}
	src.rows = rows
	src.dec = dec
	return src, nil
}

// OpenCSV opens the file at path as a CSVSource. The caller must Close it.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	src, err := NewCSVSource(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

func (s *CSVSource) Next() (RawRecord, error) {
	var rec RawRecord
	if s.dec == nil {
		return rec, io.EOF
	}
	if err := s.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			s.dec = nil
			return rec, io.EOF
		}
		return rec, fmt.Errorf("reading %s: %w", s.name, &ParseError{
			Field: "record",
			Value: strconv.Itoa(s.rows.records + 1),
			Err:   err,
		})
	}
	return rec, nil
}

// Line returns the line on which the last record read by Next starts.
func (s *CSVSource) Line() int {
	if s.rows == nil {
		return 0
	}
	return s.rows.line
}

func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func (s *CSVSource) String() string {
	return s.name
}

// sliceSource replays records already held in memory.
type sliceSource struct {
	name    string
	records []RawRecord
	next    int
}

func (s *sliceSource) Next() (RawRecord, error) {
	if s.next >= len(s.records) {
		return RawRecord{}, io.EOF
	}
	rec := s.records[s.next]
	s.next++
	return rec, nil
}

func (s *sliceSource) Close() error { return nil }

func (s *sliceSource) String() string { return s.name }
