package record

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/floudata/pucp-time-series/internal/models"
)

var (
	ageRe = regexp.MustCompile(`Age:\s*(\d+)`)
	sexRe = regexp.MustCompile(`Sex:\s*(\w+)`)
	dxRe  = regexp.MustCompile(`Dx:\s*([\d,]+)`)
)

// ParseComments extracts age, sex and diagnosis codes from header comment lines such as
// "Age: 59", "Sex: Male" and "Dx: 426177001,164934002". A later line overrides an earlier one.
// Missing fields are left empty.
func ParseComments(comments []string) models.RecordMetadata {
	var meta models.RecordMetadata
	for _, line := range comments {
		if m := ageRe.FindStringSubmatch(line); m != nil {
			if age, err := strconv.Atoi(m[1]); err == nil {
				meta.Age = &age
			}
		}
		if m := sexRe.FindStringSubmatch(line); m != nil {
			meta.Sex = m[1]
		}
		if m := dxRe.FindStringSubmatch(line); m != nil {
			meta.DiagnosisCodes = splitCodes(m[1])
		}
	}
	return meta
}

func splitCodes(s string) []string {
	var codes []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}
