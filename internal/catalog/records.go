package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// RecordEntry one row of records.csv
type RecordEntry struct {
	Number   int    `json:"number"`
	RecordID string `json:"record_id"`
}

// RecordCatalog the selectable records, in file order
type RecordCatalog struct {
	entries  []RecordEntry
	byNumber map[int]string
}

// LoadRecordCatalog reads a ';'-separated records file with columns NUMBERS;RECORDS
func LoadRecordCatalog(path string) (*RecordCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record catalog: %w", err)
	}
	defer f.Close()
	return ParseRecordCatalog(f)
}

// ParseRecordCatalog parses the records file format
func ParseRecordCatalog(r io.Reader) (*RecordCatalog, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse record catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("record catalog is empty")
	}

	cols, err := columns(rows[0], "NUMBERS", "RECORDS")
	if err != nil {
		return nil, fmt.Errorf("record catalog: %w", err)
	}
	numCol, recCol := cols[0], cols[1]

	c := &RecordCatalog{byNumber: make(map[int]string)}
	for i, row := range rows[1:] {
		n, err := strconv.Atoi(strings.TrimSpace(row[numCol]))
		if err != nil {
			return nil, fmt.Errorf("record catalog line %d: invalid number %q", i+2, row[numCol])
		}
		id := strings.TrimSpace(row[recCol])
		if id == "" {
			return nil, fmt.Errorf("record catalog line %d: empty record", i+2)
		}
		c.entries = append(c.entries, RecordEntry{Number: n, RecordID: id})
		c.byNumber[n] = id
	}
	return c, nil
}

// List all entries in file order
func (c *RecordCatalog) List() []RecordEntry {
	out := make([]RecordEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Resolve maps a catalog number ("12") to its record ID; anything else is returned as is
func (c *RecordCatalog) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if id, ok := c.byNumber[n]; ok {
			return id
		}
	}
	return ref
}

// columns finds the indexes of the named header columns
func columns(header []string, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("missing column %s", name)
		}
	}
	return idx, nil
}
