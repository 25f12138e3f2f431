package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

func TestOrchestrator_FullTransfer(t *testing.T) {
	// 1,000,000 bytes at a 64 KiB write unit: 15 full writes plus one
	// 16,960-byte remainder.
	src := newFakeSource(1_000_000)
	sink := &fakeSink{maxUnit: 1 << 20}

	orch := NewOrchestrator(src, sink, testLogger())
	res, err := orch.Run(context.Background(), Request{
		Bucket:      "b",
		Key:         "k",
		Destination: "dest.bin",
		WriteSize:   65536,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), res.BytesWritten)
	assert.Equal(t, int64(16), res.WriteOperations)
	assert.False(t, res.SizeMismatch)
	assert.NotEmpty(t, res.TransferID)

	require.Len(t, sink.file.writes, 16)
	for i := 0; i < 15; i++ {
		assert.Equal(t, writeRecord{offset: int64(i) * 65536, length: 65536}, sink.file.writes[i])
	}
	assert.Equal(t, writeRecord{offset: 15 * 65536, length: 16960}, sink.file.writes[15])

	assert.Equal(t, 1, sink.file.closes)
	assert.True(t, bytes.Equal(src.data, sink.file.data), "destination must be byte-identical to the source")
}

func TestOrchestrator_EmptyObject(t *testing.T) {
	src := newFakeSource(0)
	sink := &fakeSink{maxUnit: 1 << 20}

	orch := NewOrchestrator(src, sink, testLogger())
	res, err := orch.Run(context.Background(), Request{Bucket: "b", Key: "k", Destination: "d", WriteSize: 65536})
	require.NoError(t, err)

	assert.Equal(t, int64(0), res.BytesWritten)
	assert.Equal(t, int64(0), res.WriteOperations)
	assert.Equal(t, float64(0), res.ThroughputBps)
	assert.Equal(t, float64(0), res.AvgWriteSize)
	assert.Equal(t, 0, src.reads)
	assert.Equal(t, 1, sink.file.closes)
}

func TestOrchestrator_SourceFailureMidTransfer(t *testing.T) {
	// The source dies on the fourth read. Three writes land, the failure
	// aborts the loop, and the handle is still closed exactly once.
	src := newFakeSource(1_000_000)
	src.failAfter = 3
	sink := &fakeSink{maxUnit: 1 << 20}

	orch := NewOrchestrator(src, sink, testLogger())
	res, err := orch.Run(context.Background(), Request{Bucket: "b", Key: "k", Destination: "d", WriteSize: 65536})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceRead))

	assert.Len(t, sink.file.writes, 3)
	assert.Equal(t, int64(3), res.WriteOperations)
	assert.Equal(t, int64(3*65536), res.BytesWritten)
	assert.Equal(t, 1, sink.file.closes)
}

func TestOrchestrator_ClampsToSinkMaximum(t *testing.T) {
	// Requested 1 MiB but the sink caps writes at 256 KiB.
	src := newFakeSource(600_000)
	sink := &fakeSink{maxUnit: 256 * 1024}

	orch := NewOrchestrator(src, sink, testLogger())
	res, err := orch.Run(context.Background(), Request{Bucket: "b", Key: "k", Destination: "d", WriteSize: 1 << 20})
	require.NoError(t, err)

	assert.Equal(t, int64(600_000), res.BytesWritten)
	for _, w := range sink.file.writes {
		assert.LessOrEqual(t, w.length, 256*1024)
	}
	assert.True(t, bytes.Equal(src.data, sink.file.data))
}

func TestOrchestrator_StreamingFetchWindow(t *testing.T) {
	// Small source reads reassembled into full write units: 1700-byte
	// fetches, 6000-byte writes, 2000-byte remainder.
	src := newFakeSource(20_000)
	sink := &fakeSink{maxUnit: 1 << 20}

	orch := NewOrchestrator(src, sink, testLogger())
	res, err := orch.Run(context.Background(), Request{
		Bucket:      "b",
		Key:         "k",
		Destination: "d",
		WriteSize:   6000,
		FetchWindow: 1700,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20_000), res.BytesWritten)
	assert.Equal(t, int64(4), res.WriteOperations)

	var offset int64
	for _, w := range sink.file.writes {
		assert.Equal(t, offset, w.offset, "writes must tile the destination without gaps")
		offset += int64(w.length)
	}
	assert.True(t, bytes.Equal(src.data, sink.file.data))
}

func TestOrchestrator_SourceShrankMidTransfer(t *testing.T) {
	src := newFakeSource(5000)
	src.declared = 8000
	sink := &fakeSink{maxUnit: 1 << 20}

	orch := NewOrchestrator(src, sink, testLogger())
	res, err := orch.Run(context.Background(), Request{Bucket: "b", Key: "k", Destination: "d", WriteSize: 2500})
	require.NoError(t, err, "a shrinking source is legitimate termination, not corruption")

	assert.Equal(t, int64(5000), res.BytesWritten)
	assert.True(t, res.SizeMismatch)
	assert.Equal(t, 1, sink.file.closes)
}

func TestOrchestrator_SinkWriteFailure(t *testing.T) {
	src := newFakeSource(500_000)
	sink := &fakeSink{maxUnit: 1 << 20}

	orch := NewOrchestrator(src, sink, testLogger())

	// Patch the file after open by failing from the third write on.
	orch.OnProgress(func(written, ops, total int64) {
		if ops == 2 {
			sink.file.failAfterWrites = 2
		}
	})

	_, err := orch.Run(context.Background(), Request{Bucket: "b", Key: "k", Destination: "d", WriteSize: 65536})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSinkWrite))
	assert.Len(t, sink.file.writes, 2)
	assert.Equal(t, 1, sink.file.closes)
}

func TestOrchestrator_Cancellation(t *testing.T) {
	src := newFakeSource(1_000_000)
	sink := &fakeSink{maxUnit: 1 << 20}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := NewOrchestrator(src, sink, testLogger())
	_, err := orch.Run(ctx, Request{Bucket: "b", Key: "k", Destination: "d", WriteSize: 65536})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Equal(t, 1, sink.file.closes)
	assert.Empty(t, sink.file.writes)
}

func TestOrchestrator_InvalidWriteSize(t *testing.T) {
	src := newFakeSource(100)
	sink := &fakeSink{maxUnit: 1 << 20}

	orch := NewOrchestrator(src, sink, testLogger())
	_, err := orch.Run(context.Background(), Request{Bucket: "b", Key: "k", Destination: "d", WriteSize: 0})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, 0, sink.opens, "configuration failures must precede any sink activity")
}

func TestOrchestrator_ProgressHook(t *testing.T) {
	src := newFakeSource(200_000)
	sink := &fakeSink{maxUnit: 1 << 20}

	var updates []int64
	orch := NewOrchestrator(src, sink, testLogger())
	orch.OnProgress(func(written, ops, total int64) {
		assert.Equal(t, int64(200_000), total)
		updates = append(updates, written)
	})

	_, err := orch.Run(context.Background(), Request{Bucket: "b", Key: "k", Destination: "d", WriteSize: 65536})
	require.NoError(t, err)

	require.Len(t, updates, 4)
	assert.Equal(t, int64(200_000), updates[len(updates)-1])
	assert.IsIncreasing(t, updates)
}
