package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCandleTime(t *testing.T) {
	t.Parallel()

	c := Candle{Timestamp: 1704067200}
	assert.True(t, c.Time().Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, c.Time().Location())
}

func TestCandleExtraValue(t *testing.T) {
	t.Parallel()

	c := Candle{Extra: []Field{{Name: "oi", Value: 12.5}, {Name: "funding", Value: -0.01}}}

	v, ok := c.ExtraValue("funding")
	assert.True(t, ok)
	assert.Equal(t, -0.01, v)

	_, ok = c.ExtraValue("missing")
	assert.False(t, ok)
}

func TestNA(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNA(NA))
	assert.False(t, IsNA(0))
	assert.Equal(t, 3.0, NZ(NA, 3))
	assert.Equal(t, 1.5, NZ(1.5, 3))
}
