package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	t.Run("derives rates from the cursor", func(t *testing.T) {
		cur := Cursor{BytesFetched: 1_000_000, BytesWritten: 1_000_000, WriteOperations: 16}
		res := Summarize(cur, 1_000_000, 2*time.Second)

		assert.True(t, res.Measurable)
		assert.InDelta(t, 500_000.0, res.ThroughputBps, 0.001)
		assert.InDelta(t, 8.0, res.OpsPerSecond, 0.001)
		assert.InDelta(t, 62_500.0, res.AvgWriteSize, 0.001)
		assert.False(t, res.SizeMismatch)
	})

	t.Run("zero elapsed is unmeasurable, not a division error", func(t *testing.T) {
		cur := Cursor{BytesWritten: 4096, WriteOperations: 1}
		res := Summarize(cur, 4096, 0)

		assert.False(t, res.Measurable)
		assert.Equal(t, float64(0), res.ThroughputBps)
		assert.Equal(t, float64(0), res.OpsPerSecond)
		assert.InDelta(t, 4096.0, res.AvgWriteSize, 0.001)
	})

	t.Run("zero operations yields zero average write size", func(t *testing.T) {
		res := Summarize(Cursor{}, 0, time.Second)
		assert.Equal(t, float64(0), res.AvgWriteSize)
		assert.False(t, res.SizeMismatch)
	})

	t.Run("flags a declared-size mismatch", func(t *testing.T) {
		cur := Cursor{BytesFetched: 5000, BytesWritten: 5000, WriteOperations: 2}
		res := Summarize(cur, 8000, time.Second)
		assert.True(t, res.SizeMismatch)
	})
}
