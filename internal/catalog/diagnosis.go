package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/floudata/pucp-time-series/internal/models"
)

// DiagnosisCatalog resolves SNOMED-CT codes to diagnosis entries.
// Lookup returns one entry per matched code, in the order the codes were given, each at
// most once. Unknown codes are omitted.
type DiagnosisCatalog interface {
	Lookup(ctx context.Context, codes []string) ([]models.DiagnosisEntry, error)
}

// CSVDiagnosisCatalog in-memory catalog loaded from SNOMED-CT.csv
type CSVDiagnosisCatalog struct {
	byCode map[string]models.DiagnosisEntry
}

var _ DiagnosisCatalog = (*CSVDiagnosisCatalog)(nil)

// LoadDiagnosisCSV reads a catalog with columns Snomed_CT,Full_Name,Acronym_Name
func LoadDiagnosisCSV(path string) (*CSVDiagnosisCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnosis catalog: %w", err)
	}
	defer f.Close()
	return ParseDiagnosisCSV(f)
}

// ParseDiagnosisCSV parses the catalog format; extra columns are ignored
func ParseDiagnosisCSV(r io.Reader) (*CSVDiagnosisCatalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("diagnosis catalog is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse diagnosis catalog: %w", err)
	}
	cols, err := columns(header, "Snomed_CT", "Full_Name", "Acronym_Name")
	if err != nil {
		return nil, fmt.Errorf("diagnosis catalog: %w", err)
	}

	c := &CSVDiagnosisCatalog{byCode: make(map[string]models.DiagnosisEntry)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse diagnosis catalog: %w", err)
		}
		code := field(row, cols[0])
		if code == "" {
			continue
		}
		// first definition of a code wins
		if _, dup := c.byCode[code]; dup {
			continue
		}
		c.byCode[code] = models.DiagnosisEntry{
			Code:     code,
			FullName: field(row, cols[1]),
			Acronym:  field(row, cols[2]),
		}
	}
	return c, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Lookup implements DiagnosisCatalog
func (c *CSVDiagnosisCatalog) Lookup(_ context.Context, codes []string) ([]models.DiagnosisEntry, error) {
	out := make([]models.DiagnosisEntry, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if seen[code] {
			continue
		}
		seen[code] = true
		if e, ok := c.byCode[code]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Names code to full name for entries, the map DecodeCodes expects
func Names(entries []models.DiagnosisEntry) map[string]string {
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[e.Code] = e.FullName
	}
	return names
}

// Entries all catalog entries ordered by code
func (c *CSVDiagnosisCatalog) Entries() []models.DiagnosisEntry {
	out := make([]models.DiagnosisEntry, 0, len(c.byCode))
	for _, e := range c.byCode {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len number of codes in the catalog
func (c *CSVDiagnosisCatalog) Len() int {
	return len(c.byCode)
}

// DecodeCodes turns "164889003,59118001" into "Atrial fibrillation, Unknown(59118001)".
// Codes missing from names are rendered as Unknown(code).
func DecodeCodes(codesString string, names map[string]string) string {
	if strings.TrimSpace(codesString) == "" {
		return ""
	}
	parts := strings.Split(codesString, ",")
	out := make([]string, 0, len(parts))
	for _, code := range parts {
		code = strings.TrimSpace(code)
		if name, ok := names[code]; ok {
			out = append(out, name)
		} else {
			out = append(out, fmt.Sprintf("Unknown(%s)", code))
		}
	}
	return strings.Join(out, ", ")
}
