// Package csvimport reads spreadsheet exports row by row and checks the
// cells against declarative column rules.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads a CSV document whose first row names the columns
type Parser struct {
	reader  *csv.Reader
	headers []string
	index   map[string]int
	aliases map[string]string
	comma   rune
	line    int

	malformed []RowError
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.comma = d
	}
}

// WithHeaderAliases maps alternative header spellings to canonical column
// names. Keys are matched case-insensitively after trimming.
func WithHeaderAliases(aliases map[string]string) ParserOption {
	return func(p *Parser) {
		for k, v := range aliases {
			p.aliases[normalizeHeader(k)] = v
		}
	}
}

// NewParser strips a UTF-8 BOM, checks the encoding and reads the header row
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		index:   make(map[string]int),
		aliases: make(map[string]string),
		comma:   ',',
	}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); len(head) == len(utf8BOM) && string(head) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	if err := checkEncoding(br); err != nil {
		return nil, err
	}

	p.reader = csv.NewReader(br)
	p.reader.Comma = p.comma
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1

	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkEncoding rejects files whose first block is not UTF-8, which is
// what spreadsheet tools produce when exporting as GBK. Later blocks are
// checked row by row in ReadRow.
func checkEncoding(br *bufio.Reader) error {
	const sample = 4096
	head, err := br.Peek(sample)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("read file: %w", err)
	}
	if len(strings.TrimSpace(string(head))) == 0 {
		return ErrEmptyFile
	}
	if len(head) == sample {
		// a multi-byte rune may be cut at the sample boundary
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(head); i++ {
			head = head[:len(head)-1]
		}
	}
	if !utf8.Valid(head) {
		return ErrInvalidEncoding
	}
	return nil
}

func (p *Parser) readHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	p.line = 1

	p.headers = make([]string, len(record))
	for i, raw := range record {
		name := strings.TrimSpace(raw)
		if canonical, ok := p.aliases[normalizeHeader(name)]; ok {
			name = canonical
		}
		p.headers[i] = name
		if _, dup := p.index[name]; !dup && name != "" {
			p.index[name] = i
		}
	}
	if len(p.index) == 0 {
		return ErrMissingHeader
	}
	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Headers returns the canonical column names in file order
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader reports whether the file has the canonical column name
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.index[name]
	return ok
}

// MissingHeaders returns the required columns the file lacks
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data line keyed by canonical column name
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the trimmed cell of column, or "" when absent
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty reports whether every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow returns the next row, or io.EOF after the last one. A line the
// CSV reader cannot parse comes back as a *RowError with CodeMalformedRow;
// a cell that is not UTF-8 fails with ErrInvalidEncoding.
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		p.line++
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			p.line = perr.StartLine
		}
		return nil, NewRowError(p.line, "", CodeMalformedRow, err.Error())
	}
	// blank lines are skipped by the reader, so take the line from it
	p.line, _ = p.reader.FieldPos(0)
	for _, cell := range record {
		if !utf8.ValidString(cell) {
			return nil, fmt.Errorf("row %d: %w", p.line, ErrInvalidEncoding)
		}
	}

	row := &Row{Line: p.line, Data: make(map[string]string, len(p.index))}
	for name, i := range p.index {
		if i < len(record) {
			row.Data[name] = strings.TrimSpace(record[i])
		} else {
			row.Data[name] = ""
		}
	}
	return row, nil
}

// ReadAll returns every non-blank row. Malformed lines are skipped and kept
// for Malformed; they count toward maxRows like any other data line. More
// than maxRows data lines yields ErrTooManyRows; maxRows <= 0 means
// unlimited.
func (p *Parser) ReadAll(maxRows int) ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *RowError
		switch {
		case errors.As(err, &rowErr):
			if maxRows > 0 && len(rows)+len(p.malformed) == maxRows {
				return rows, ErrTooManyRows
			}
			p.malformed = append(p.malformed, *rowErr)
			continue
		case err != nil:
			return rows, err
		case row.IsEmpty():
			continue
		}
		if maxRows > 0 && len(rows)+len(p.malformed) == maxRows {
			return rows, ErrTooManyRows
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 && len(p.malformed) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// Malformed returns the lines ReadAll skipped because they could not be parsed
func (p *Parser) Malformed() []RowError {
	return p.malformed
}
