package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBugCompat_Has(t *testing.T) {
	bc := SwapEndian
	assert.True(t, bc.Has(SwapEndian))
	assert.False(t, bc.Has(ShapeBit1))
}

func TestPyspead052IsUnionOfAllFlags(t *testing.T) {
	assert.True(t, Pyspead052.Has(DescriptorWidths))
	assert.True(t, Pyspead052.Has(ShapeBit1))
	assert.True(t, Pyspead052.Has(SwapEndian))
}
