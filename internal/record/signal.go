package record

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/floudata/pucp-time-series/internal/models"
)

// fileGroup signals stored interleaved in the same file, in header order
type fileGroup struct {
	name    string
	format  int
	offset  int64
	columns []int
}

func groupSignals(h *Header) ([]fileGroup, error) {
	var groups []fileGroup
	index := make(map[string]int)
	for col, s := range h.Signals {
		if !validFileName(s.FileName) {
			return nil, fmt.Errorf("%w: signal file %q", models.ErrMalformedRecord, s.FileName)
		}
		i, ok := index[s.FileName]
		if !ok {
			index[s.FileName] = len(groups)
			groups = append(groups, fileGroup{name: s.FileName, format: s.Format, offset: s.ByteOffset})
			i = len(groups) - 1
		}
		g := &groups[i]
		if g.format != s.Format || g.offset != s.ByteOffset {
			return nil, fmt.Errorf("%w: mixed formats in %s", models.ErrMalformedRecord, s.FileName)
		}
		g.columns = append(g.columns, col)
	}
	return groups, nil
}

// readSamples loads every signal of the header from dir and converts it to physical units.
// The result is indexed [sample][channel].
func readSamples(dir string, h *Header) ([][]float64, error) {
	groups, err := groupSignals(h)
	if err != nil {
		return nil, err
	}

	digital := make([][]int, len(h.Signals))
	for _, g := range groups {
		data, err := os.ReadFile(filepath.Join(dir, g.name))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", models.ErrMalformedRecord, g.name, err)
		}
		if int64(len(data)) < g.offset {
			return nil, fmt.Errorf("%w: %s shorter than its byte offset", models.ErrMalformedRecord, g.name)
		}
		values, err := decode(g.format, data[g.offset:])
		if err != nil {
			return nil, err
		}

		width := len(g.columns)
		frames := len(values) / width
		for i, col := range g.columns {
			column := make([]int, frames)
			for f := 0; f < frames; f++ {
				column[f] = values[f*width+i]
			}
			digital[col] = column
		}
	}

	n := h.SampleCount
	if n == 0 && len(digital) > 0 {
		n = len(digital[0])
	}
	for col, column := range digital {
		if len(column) < n {
			return nil, fmt.Errorf("%w: signal %d has %d samples, header declares %d",
				models.ErrMalformedRecord, col, len(column), n)
		}
	}

	samples := make([][]float64, n)
	for i := range samples {
		row := make([]float64, len(h.Signals))
		for col, s := range h.Signals {
			row[col] = (float64(digital[col][i]) - s.Baseline) / s.Gain
		}
		samples[i] = row
	}
	return samples, nil
}

func decode(format int, data []byte) ([]int, error) {
	switch format {
	case 16:
		return decode16(data), nil
	case 212:
		return decode212(data), nil
	default:
		return nil, fmt.Errorf("%w: unsupported storage format %d", models.ErrMalformedRecord, format)
	}
}

// decode16 little-endian two's complement 16-bit samples
func decode16(data []byte) []int {
	out := make([]int, len(data)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(data[2*i:])))
	}
	return out
}

// decode212 pairs of 12-bit samples packed into three bytes
func decode212(data []byte) []int {
	out := make([]int, 0, len(data)*2/3)
	for i := 0; i+2 < len(data); i += 3 {
		b0, b1, b2 := int(data[i]), int(data[i+1]), int(data[i+2])
		out = append(out, signExtend12(b0|(b1&0x0f)<<8), signExtend12(b2|(b1&0xf0)<<4))
	}
	return out
}

func signExtend12(v int) int {
	if v&0x800 != 0 {
		return v - 0x1000
	}
	return v
}
