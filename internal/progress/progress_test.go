package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndicatorCountsVisits(t *testing.T) {
	i := &Indicator{}
	var flips []bool
	i.OnChange(func(b bool) { flips = append(flips, b) })

	assert.Equal(t, "", i.BodyClass())
	i.add(1)
	assert.True(t, i.Loading())
	assert.Equal(t, LoadingClass, i.BodyClass())

	// nested visit (login redirect inside a visit)
	i.add(1)
	i.add(-1)
	assert.True(t, i.Loading())
	i.add(-1)
	assert.False(t, i.Loading())

	// stray finish never goes negative
	i.add(-1)
	assert.False(t, i.Loading())
	i.add(1)
	assert.True(t, i.Loading())

	assert.Equal(t, []bool{true, false, true}, flips)
}
