package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComments(t *testing.T) {
	meta := ParseComments([]string{"Age: 59", "Sex: Female", "Dx: 426177001,164934002", "Rx: Unknown"})

	require.NotNil(t, meta.Age)
	assert.Equal(t, 59, *meta.Age)
	assert.Equal(t, "Female", meta.Sex)
	assert.Equal(t, []string{"426177001", "164934002"}, meta.DiagnosisCodes)
}

func TestParseComments_MissingFields(t *testing.T) {
	meta := ParseComments([]string{"Rx: Unknown", "Hx: Unknown"})

	assert.Nil(t, meta.Age)
	assert.Empty(t, meta.Sex)
	assert.Empty(t, meta.DiagnosisCodes)
}

func TestParseComments_LaterLineWins(t *testing.T) {
	meta := ParseComments([]string{"Age: 40", "Dx: 1,2,", "Age: 41"})

	require.NotNil(t, meta.Age)
	assert.Equal(t, 41, *meta.Age)
	assert.Equal(t, []string{"1", "2"}, meta.DiagnosisCodes)
}

func TestParseComments_NonNumericAgeIgnored(t *testing.T) {
	meta := ParseComments([]string{"Age: NaN", "Sex: Male"})

	assert.Nil(t, meta.Age)
	assert.Equal(t, "Male", meta.Sex)
}
