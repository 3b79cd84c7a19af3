package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRigor_Trials(t *testing.T) {
	assert.Equal(t, 0, Estimate.Trials())
	assert.Equal(t, 1, Measure.Trials())
	assert.Equal(t, 3, Patient.Trials())
	assert.Equal(t, 8, Exhaustive.Trials())
	assert.Equal(t, 0, Rigor(99).Trials())
}

func TestRigorString(t *testing.T) {
	for _, r := range RigorValues() {
		back, err := RigorString(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, back)
	}

	// Config files use lower-case names.
	r, err := RigorString("exhaustive")
	require.NoError(t, err)
	assert.Equal(t, Exhaustive, r)

	_, err = RigorString("psychic")
	require.Error(t, err)

	assert.False(t, Rigor(99).IsARigor())
	assert.Equal(t, "Rigor(99)", Rigor(99).String())
}
