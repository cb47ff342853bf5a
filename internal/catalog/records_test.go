package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordsCSV = `NUMBERS;RECORDS
1;WFDBRecords/01/010/JS00001
2;WFDBRecords/01/010/JS00002
10;WFDBRecords/01/011/JS00010
`

func TestParseRecordCatalog(t *testing.T) {
	c, err := ParseRecordCatalog(strings.NewReader(recordsCSV))
	require.NoError(t, err)

	entries := c.List()
	require.Len(t, entries, 3)
	assert.Equal(t, RecordEntry{Number: 1, RecordID: "WFDBRecords/01/010/JS00001"}, entries[0])
	assert.Equal(t, 10, entries[2].Number)

	assert.Equal(t, "WFDBRecords/01/010/JS00002", c.Resolve("2"))
	assert.Equal(t, "WFDBRecords/01/011/JS00010", c.Resolve(" 10 "))
	assert.Equal(t, "WFDBRecords/02/020/JS00123", c.Resolve("WFDBRecords/02/020/JS00123"))
	assert.Equal(t, "99", c.Resolve("99"), "unknown numbers pass through")
}

func TestParseRecordCatalog_ColumnOrderAndBOM(t *testing.T) {
	c, err := ParseRecordCatalog(strings.NewReader("\ufeffRECORDS;NUMBERS\nJS00001;7\n"))
	require.NoError(t, err)
	assert.Equal(t, "JS00001", c.Resolve("7"))
}

func TestParseRecordCatalog_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "NUMBERS;NAME\n1;JS00001\n",
		"bad number":     "NUMBERS;RECORDS\none;JS00001\n",
		"empty record":   "NUMBERS;RECORDS\n1;\n",
		"ragged row":     "NUMBERS;RECORDS\n1;JS00001;extra\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRecordCatalog(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestRecordCatalog_ListIsACopy(t *testing.T) {
	c, err := ParseRecordCatalog(strings.NewReader(recordsCSV))
	require.NoError(t, err)

	entries := c.List()
	entries[0].RecordID = "changed"
	assert.Equal(t, "WFDBRecords/01/010/JS00001", c.List()[0].RecordID)
}

func TestLoadRecordCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, os.WriteFile(path, []byte(recordsCSV), 0o644))

	c, err := LoadRecordCatalog(path)
	require.NoError(t, err)
	assert.Len(t, c.List(), 3)

	_, err = LoadRecordCatalog(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
