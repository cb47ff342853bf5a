package record

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/floudata/pucp-time-series/internal/models"
)

// defaultGain ADC units per physical unit when the header leaves the gain at 0
const defaultGain = 200

// SignalSpec one signal line of a WFDB header
type SignalSpec struct {
	FileName    string
	Format      int
	ByteOffset  int64
	Gain        float64
	Baseline    float64
	Units       string
	ADCZero     int
	InitValue   int
	Description string
}

// Header parsed WFDB header (.hea)
type Header struct {
	RecordName   string
	SignalCount  int
	SamplingRate float64
	SampleCount  int
	Signals      []SignalSpec
	Comments     []string
}

// ParseHeader reads a WFDB header: one record line, one line per signal, and any number
// of "#" comment lines. Parse failures are reported as models.ErrMalformedRecord.
func ParseHeader(r io.Reader) (*Header, error) {
	h := &Header{}
	sc := bufio.NewScanner(r)
	sawRecordLine := false

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if c := strings.TrimSpace(strings.TrimLeft(line, "#")); c != "" {
				h.Comments = append(h.Comments, c)
			}
			continue
		}
		if !sawRecordLine {
			if err := h.parseRecordLine(line); err != nil {
				return nil, err
			}
			sawRecordLine = true
			continue
		}
		if len(h.Signals) >= h.SignalCount {
			// info strings after the signal block are ignored
			continue
		}
		sig, err := parseSignalLine(line)
		if err != nil {
			return nil, err
		}
		h.Signals = append(h.Signals, sig)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !sawRecordLine {
		return nil, fmt.Errorf("%w: header has no record line", models.ErrMalformedRecord)
	}
	if len(h.Signals) != h.SignalCount {
		return nil, fmt.Errorf("%w: header declares %d signals, found %d",
			models.ErrMalformedRecord, h.SignalCount, len(h.Signals))
	}
	return h, nil
}

func (h *Header) parseRecordLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("%w: record line %q", models.ErrMalformedRecord, line)
	}
	h.RecordName = fields[0]

	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return fmt.Errorf("%w: signal count %q", models.ErrMalformedRecord, fields[1])
	}
	h.SignalCount = n

	h.SamplingRate = 250
	if len(fields) > 2 {
		// "500", "500/1000" (counter frequency) or "500(0)" (base counter)
		fs, err := strconv.ParseFloat(leadingToken(fields[2], "/("), 64)
		if err != nil || !(fs > 0) || math.IsInf(fs, 0) {
			return fmt.Errorf("%w: sampling rate %q", models.ErrMalformedRecord, fields[2])
		}
		h.SamplingRate = fs
	}
	if len(fields) > 3 {
		ns, err := strconv.Atoi(fields[3])
		if err != nil || ns < 0 {
			return fmt.Errorf("%w: sample count %q", models.ErrMalformedRecord, fields[3])
		}
		h.SampleCount = ns
	}
	return nil
}

func parseSignalLine(line string) (SignalSpec, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return SignalSpec{}, fmt.Errorf("%w: signal line %q", models.ErrMalformedRecord, line)
	}
	sig := SignalSpec{FileName: fields[0], Gain: defaultGain, Units: "mV"}

	// format[xframes][:skew][+offset]
	fmtField := fields[1]
	if i := strings.IndexByte(fmtField, '+'); i >= 0 {
		off, err := strconv.ParseInt(fmtField[i+1:], 10, 64)
		if err != nil || off < 0 {
			return SignalSpec{}, fmt.Errorf("%w: byte offset in %q", models.ErrMalformedRecord, fmtField)
		}
		sig.ByteOffset = off
		fmtField = fmtField[:i]
	}
	format, err := strconv.Atoi(leadingToken(fmtField, "x:"))
	if err != nil {
		return SignalSpec{}, fmt.Errorf("%w: storage format %q", models.ErrMalformedRecord, fields[1])
	}
	sig.Format = format

	baselineSet := false
	if len(fields) > 2 {
		// gain[(baseline)][/units]
		g := fields[2]
		if i := strings.IndexByte(g, '/'); i >= 0 {
			sig.Units = g[i+1:]
			g = g[:i]
		}
		if i := strings.IndexByte(g, '('); i >= 0 {
			b, err := strconv.ParseFloat(strings.TrimSuffix(g[i+1:], ")"), 64)
			if err != nil || math.IsNaN(b) || math.IsInf(b, 0) {
				return SignalSpec{}, fmt.Errorf("%w: baseline in %q", models.ErrMalformedRecord, fields[2])
			}
			sig.Baseline = b
			baselineSet = true
			g = g[:i]
		}
		gain, err := strconv.ParseFloat(g, 64)
		if err != nil || math.IsNaN(gain) || math.IsInf(gain, 0) {
			return SignalSpec{}, fmt.Errorf("%w: gain %q", models.ErrMalformedRecord, fields[2])
		}
		if gain != 0 {
			sig.Gain = gain
		}
	}
	if len(fields) > 4 {
		if z, err := strconv.Atoi(fields[4]); err == nil {
			sig.ADCZero = z
		}
	}
	if !baselineSet {
		sig.Baseline = float64(sig.ADCZero)
	}
	if len(fields) > 5 {
		if v, err := strconv.Atoi(fields[5]); err == nil {
			sig.InitValue = v
		}
	}
	if len(fields) > 8 {
		sig.Description = strings.Join(fields[8:], " ")
	}
	return sig, nil
}

// SignalFiles distinct signal file names in header order
func (h *Header) SignalFiles() []string {
	var files []string
	seen := make(map[string]bool)
	for _, s := range h.Signals {
		if !seen[s.FileName] {
			seen[s.FileName] = true
			files = append(files, s.FileName)
		}
	}
	return files
}

// validFileName signal files must live next to their header
func validFileName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && path.Base(name) == name
}

func leadingToken(s, seps string) string {
	if i := strings.IndexAny(s, seps); i >= 0 {
		return s[:i]
	}
	return s
}
