package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// Parser converts a statement export into raw transactions tagged with source.
type Parser interface {
	Parse(r io.Reader, source string) ([]model.RawTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&GenericParser{})
	return r
}

// ChaseParser parses Chase checking CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV. The transaction type column becomes the category hint.
func (p *ChaseParser) Parse(r io.Reader, source string) ([]model.RawTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.RawTransaction
	for i, rec := range records[1:] {
		date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[chaseColDate], err)
		}
		amount, err := decimal.NewFromString(rec[chaseColAmount])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[chaseColAmount], err)
		}
		txns = append(txns, model.RawTransaction{
			Source:      source,
			Date:        date,
			Amount:      amount,
			Description: strings.TrimSpace(rec[chaseColDesc]),
			Category:    rec[chaseColType],
		})
	}
	return txns, nil
}

// GenericParser reads any CSV with a header naming a date column, an
// amount column and optionally a description column. Column names are
// matched case-insensitively by substring.
type GenericParser struct{}

var genericDateFormats = []string{"2006-01-02", "01/02/2006", "02/01/2006", "2006/01/02"}

// Format returns the parser name.
func (p *GenericParser) Format() string { return "csv" }

// Parse reads the CSV. Rows with an empty date are skipped.
func (p *GenericParser) Parse(r io.Reader, source string) ([]model.RawTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	dateCol, amountCol, descCol := -1, -1, -1
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case strings.Contains(name, "date"):
			dateCol = i
		case strings.Contains(name, "amount") || strings.Contains(name, "amt"):
			amountCol = i
		case strings.Contains(name, "desc") || strings.Contains(name, "memo") || strings.Contains(name, "details"):
			descCol = i
		}
	}
	if dateCol < 0 || amountCol < 0 {
		return nil, fmt.Errorf("CSV must contain date and amount columns")
	}

	var txns []model.RawTransaction
	for i, rec := range records[1:] {
		row := i + 2
		field := func(col int) string {
			if col < 0 || col >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[col])
		}

		rawDate := field(dateCol)
		if rawDate == "" {
			continue
		}
		date, err := parseGenericDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		amount, err := decimal.NewFromString(field(amountCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", row, field(amountCol), err)
		}
		txns = append(txns, model.RawTransaction{
			Source:      source,
			Date:        date,
			Amount:      amount,
			Description: field(descCol),
		})
	}
	return txns, nil
}

func parseGenericDate(s string) (time.Time, error) {
	for _, layout := range genericDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q: unrecognized format", s)
}

// FileInfo describes a CSV file waiting in an import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// processedDir is the subdirectory imported files are moved into.
const processedDir = "processed"

// Scan returns the CSV files directly inside dir. A missing dir is empty.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves dir/fileName into dir/processed/.
func MarkProcessed(dir, fileName string) error {
	dstDir := filepath.Join(dir, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	if err := os.Rename(filepath.Join(dir, fileName), filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
