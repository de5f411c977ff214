package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// sniffSize is how much of the file is inspected for encoding and delimiter
const sniffSize = 4096

// CSVParser reads a spreadsheet export row by row, keyed by header name
type CSVParser struct {
	delimiter  rune
	sniff      bool
	headerMap  map[string]int
	headers    []string
	currentRow int
	totalRows  int
	reader     *csv.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter fixes the field delimiter and disables sniffing
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
		p.sniff = false
	}
}

// NewCSVParser creates a parser over r. A UTF-8 BOM is skipped, and unless a
// delimiter was fixed, the first line decides between comma and semicolon.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{
		delimiter: ',',
		sniff:     true,
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	buf := bufio.NewReaderSize(r, sniffSize)
	if bom, err := buf.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = buf.Discard(3)
	}

	head, err := buf.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8Prefix(head) {
		return nil, ErrInvalidEncoding
	}
	if p.sniff {
		p.delimiter = DetectDelimiter(head)
	}

	p.reader = csv.NewReader(buf)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// validUTF8Prefix accepts a buffer whose only defect is a rune cut at the end
func validUTF8Prefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}

// DetectDelimiter picks ';' when the first line has more semicolons than commas,
// as spreadsheets in pt-BR locales export them
func DetectDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexAny(head, "\r\n"); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// Delimiter returns the delimiter in use
func (p *CSVParser) Delimiter() rune {
	return p.delimiter
}

// ParseHeader reads the header row. Lookups by name ignore case and accents.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		p.headers = append(p.headers, h)
		if h != "" {
			p.headerMap[headerKey(h)] = i
		}
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[headerKey(name)]
	return ok
}

// ValidateHeaders returns the required headers that are absent
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data line with its values keyed by normalized header
type Row struct {
	LineNumber int
	data       map[string]string
}

// NewRow builds a row from header/value pairs
func NewRow(line int, values map[string]string) *Row {
	r := &Row{LineNumber: line, data: make(map[string]string, len(values))}
	for k, v := range values {
		r.data[headerKey(k)] = strings.TrimSpace(v)
	}
	return r
}

// Get returns the value of a column, empty when absent
func (r *Row) Get(header string) string {
	return r.data[headerKey(header)]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row. It returns io.EOF after the last one.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	p.totalRows++

	row := &Row{LineNumber: p.currentRow, data: make(map[string]string, len(p.headerMap))}
	for key, i := range p.headerMap {
		if i < len(record) {
			row.data[key] = strings.TrimSpace(record[i])
		} else {
			row.data[key] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads every remaining row, skipping blank lines
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}
}

// TotalRows returns the total number of data rows read
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}

func headerKey(h string) string {
	return NormalizeText(h)
}
