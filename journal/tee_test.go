package journal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recSink struct {
	recs     []EquityRecord
	closes   int
	closeErr error
}

func (r *recSink) WriteEquity(e EquityRecord) error {
	r.recs = append(r.recs, e)
	return nil
}

func (r *recSink) Close() error {
	r.closes++
	return r.closeErr
}

func TestTee(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Tee(nil, nil))

	one := &recSink{}
	assert.Same(t, one, Tee(nil, one))

	boom := errors.New("boom")
	a, b := &recSink{closeErr: boom}, &recSink{}
	sink := Tee(a, nil, b)
	require.NoError(t, sink.WriteEquity(EquityRecord{TradeNum: 1}))

	assert.ErrorIs(t, sink.Close(), boom)
	assert.Len(t, a.recs, 1)
	assert.Len(t, b.recs, 1)
	assert.Equal(t, 1, a.closes)
	assert.Equal(t, 1, b.closes)
}
