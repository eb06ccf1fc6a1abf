package gas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeAndRemaining(t *testing.T) {
	meter := NewMeter(100)

	require.NoError(t, meter.Consume(30, "read"))
	require.NoError(t, meter.Consume(70, "write"))
	assert.Equal(t, uint64(100), meter.Consumed())
	assert.Equal(t, uint64(0), meter.Remaining())
	assert.Equal(t, uint64(100), meter.Limit())
}

func TestConsumeOverLimit(t *testing.T) {
	meter := NewMeter(50)
	require.NoError(t, meter.Consume(40, "read"))

	err := meter.Consume(11, "write")
	require.ErrorIs(t, err, ErrOutOfGas)
	assert.Contains(t, err.Error(), "write")

	// 超限后打满，剩余清零，后续任何扣除都失败
	assert.Equal(t, uint64(50), meter.Consumed())
	assert.Equal(t, uint64(0), meter.Remaining())
	assert.ErrorIs(t, meter.Consume(1, "read"), ErrOutOfGas)
}

func TestZeroConsumeAfterExhaustion(t *testing.T) {
	meter := NewMeter(10)
	require.ErrorIs(t, meter.Consume(11, "scan"), ErrOutOfGas)
	assert.NoError(t, meter.Consume(0, "noop"))
}
