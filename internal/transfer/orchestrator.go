package transfer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Orchestrator drives one fetch/buffer/write loop end to end. It owns the
// sink file handle for the duration of the attempt and closes it exactly
// once on every exit path.
type Orchestrator struct {
	src        Source
	sink       Sink
	log        *logrus.Logger
	onProgress func(written, ops, total int64)
}

// NewOrchestrator wires an engine over the given collaborators.
func NewOrchestrator(src Source, sink Sink, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{src: src, sink: sink, log: log}
}

// OnProgress registers a hook invoked after every completed write.
func (o *Orchestrator) OnProgress(fn func(written, ops, total int64)) {
	o.onProgress = fn
}

// Run executes the transfer described by req. On failure the returned
// Result still carries the counters accumulated so far, so callers can
// record the attempt.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	id := uuid.New().String()
	log := o.log.WithFields(logrus.Fields{
		"transfer_id": id,
		"bucket":      req.Bucket,
		"key":         req.Key,
		"destination": req.Destination,
	})

	var cur Cursor
	var total int64
	start := time.Now()
	finish := func() Result {
		res := Summarize(cur, total, time.Since(start))
		res.TransferID = id
		return res
	}

	total, err := o.src.HeadSize(ctx, req.Bucket, req.Key)
	if err != nil {
		return finish(), err
	}
	if total < 0 {
		return finish(), fmt.Errorf("%w: source declared negative size %d", ErrInvalidConfig, total)
	}

	sinkMax := o.sink.MaxWriteUnit()
	unit, err := NegotiateWriteUnit(req.WriteSize, sinkMax)
	if err != nil {
		return finish(), err
	}
	if unit < req.WriteSize {
		log.Warnf("requested write size %d exceeds sink maximum %d, clamping", req.WriteSize, sinkMax)
	}

	window := req.FetchWindow
	if window <= 0 {
		window = unit
	}

	fetcher, err := NewRangeFetcher(o.src, req.Bucket, req.Key, total, window)
	if err != nil {
		return finish(), err
	}
	buf, err := NewWriteBuffer(unit)
	if err != nil {
		return finish(), err
	}

	log.WithFields(logrus.Fields{
		"declared_size": total,
		"write_unit":    unit,
		"fetch_window":  window,
	}).Info("starting transfer")

	file, err := o.sink.Open(req.Destination)
	if err != nil {
		return finish(), fmt.Errorf("%w: open %s: %v", ErrSinkWrite, req.Destination, err)
	}

	// The handle is closed exactly once: eagerly on the success path so
	// the elapsed time covers it, and via defer on every failure path. A
	// close failure during an abort is logged so the original error stays
	// the reported one.
	var closeOnce sync.Once
	closeFile := func() {
		closeOnce.Do(func() {
			if cerr := file.Close(); cerr != nil {
				log.WithError(cerr).Warn("closing destination file failed")
			}
		})
	}
	defer closeFile()

	writeSegment := func(seg Segment) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		if _, err := file.WriteAt(seg.Data, seg.Offset); err != nil {
			return fmt.Errorf("%w: offset %d len %d: %v", ErrSinkWrite, seg.Offset, len(seg.Data), err)
		}
		cur.BytesWritten += int64(len(seg.Data))
		cur.WriteOperations++
		if o.onProgress != nil {
			o.onProgress(cur.BytesWritten, cur.WriteOperations, total)
		}
		return nil
	}

	for {
		chunk, err := fetcher.Next(ctx)
		if err != nil {
			return finish(), err
		}
		if chunk == nil {
			break
		}
		cur.BytesFetched += int64(len(chunk))

		for _, seg := range buf.Accept(chunk) {
			if err := writeSegment(seg); err != nil {
				return finish(), err
			}
		}
	}

	if seg, ok := buf.FlushRemainder(); ok {
		if err := writeSegment(seg); err != nil {
			return finish(), err
		}
	}

	closeFile()

	res := Summarize(cur, total, time.Since(start))
	res.TransferID = id
	if res.SizeMismatch {
		log.Warnf("declared size %d but wrote %d bytes; source changed during transfer", total, cur.BytesWritten)
	}
	log.WithFields(logrus.Fields{
		"bytes_written":    res.BytesWritten,
		"write_operations": res.WriteOperations,
		"elapsed":          res.Elapsed.String(),
	}).Info("transfer complete")
	return res, nil
}
