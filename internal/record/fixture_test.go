package record

import (
	"encoding/binary"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/floudata/pucp-time-series/internal/models"
)

const testRecordID = "WFDBRecords/01/010/JS00001"

// buildRecordFiles writes a format 16+24 record the way the PhysioNet .mat files are laid out.
// leads is indexed [channel][sample].
func buildRecordFiles(dataDir, id string, fs, gain float64, leads [][]int16) error {
	dir := filepath.Join(dataDir, filepath.Dir(filepath.FromSlash(id)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := path.Base(id)
	n := len(leads[0])

	buf := make([]byte, 24, 24+n*len(leads)*2)
	for i := 0; i < n; i++ {
		for _, lead := range leads {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(lead[i]))
		}
	}
	if err := os.WriteFile(filepath.Join(dir, base+".mat"), buf, 0o644); err != nil {
		return err
	}

	var hb strings.Builder
	fmt.Fprintf(&hb, "%s %d %g %d 05-May-2020 14:50:55\n", base, len(leads), fs, n)
	for c := range leads {
		fmt.Fprintf(&hb, "%s.mat 16+24 %g/mV 16 0 %d 0 0 %s\n", base, gain, leads[c][0], models.LeadName(c))
	}
	hb.WriteString("#Age: 59\n#Sex: Female\n#Dx: 426177001,164934002\n#Rx: Unknown\n")
	return os.WriteFile(filepath.Join(dir, base+".hea"), []byte(hb.String()), 0o644)
}

func writeRecord(t *testing.T, dataDir, id string) {
	t.Helper()
	require.NoError(t, buildRecordFiles(dataDir, id, 500, 1000, testLeads(12, 10)))
}

// testLeads channel c, sample i holds c*100 + i
func testLeads(channels, samples int) [][]int16 {
	leads := make([][]int16, channels)
	for c := range leads {
		leads[c] = make([]int16, samples)
		for i := range leads[c] {
			leads[c][i] = int16(c*100 + i)
		}
	}
	return leads
}
