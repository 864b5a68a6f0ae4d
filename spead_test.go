package spead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBugCompatReexports(t *testing.T) {
	assert.Equal(t, DescriptorWidths|ShapeBit1|SwapEndian, Pyspead052)
	var bc BugCompat = SwapEndian
	assert.True(t, bc.Has(SwapEndian))
	assert.False(t, bc.Has(ShapeBit1))
}
