package transfer

import "time"

// Result is the immutable summary of one finished transfer attempt.
type Result struct {
	TransferID      string
	DeclaredSize    int64
	BytesWritten    int64
	WriteOperations int64
	Elapsed         time.Duration

	// ThroughputBps and OpsPerSecond are zero when Measurable is false,
	// i.e. the transfer finished too quickly to rate.
	ThroughputBps float64
	OpsPerSecond  float64
	Measurable    bool

	// AvgWriteSize is bytes per write operation, zero when nothing was
	// written.
	AvgWriteSize float64

	// SizeMismatch is set when the bytes written differ from the declared
	// size, meaning the source changed while the transfer ran.
	SizeMismatch bool
}

// Summarize derives rates from the final cursor. Pure computation; the
// zero-elapsed and zero-operation cases are guarded, not divided by.
func Summarize(cur Cursor, declared int64, elapsed time.Duration) Result {
	res := Result{
		DeclaredSize:    declared,
		BytesWritten:    cur.BytesWritten,
		WriteOperations: cur.WriteOperations,
		Elapsed:         elapsed,
		SizeMismatch:    cur.BytesWritten != declared,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		res.Measurable = true
		res.ThroughputBps = float64(cur.BytesWritten) / secs
		res.OpsPerSecond = float64(cur.WriteOperations) / secs
	}
	if cur.WriteOperations > 0 {
		res.AvgWriteSize = float64(cur.BytesWritten) / float64(cur.WriteOperations)
	}
	return res
}
