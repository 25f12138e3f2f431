package transfer

import (
	"context"
	"errors"
)

// fakeSource serves ranges of an in-memory byte slice. The declared size
// may differ from the backing data to simulate a source that changed
// between head and read.
type fakeSource struct {
	data     []byte
	declared int64

	// failAfter makes the (failAfter+1)th RangeRead fail; zero disables.
	failAfter int

	reads  int
	ranges [][2]int64
}

func newFakeSource(n int) *fakeSource {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return &fakeSource{data: data, declared: int64(n)}
}

func (s *fakeSource) HeadSize(ctx context.Context, bucket, key string) (int64, error) {
	return s.declared, nil
}

func (s *fakeSource) RangeRead(ctx context.Context, bucket, key string, start, end int64) ([]byte, error) {
	s.reads++
	if s.failAfter > 0 && s.reads > s.failAfter {
		return nil, errors.New("connection reset by peer")
	}
	s.ranges = append(s.ranges, [2]int64{start, end})

	if start >= int64(len(s.data)) {
		return nil, nil
	}
	if end > int64(len(s.data))-1 {
		end = int64(len(s.data)) - 1
	}
	chunk := make([]byte, end-start+1)
	copy(chunk, s.data[start:end+1])
	return chunk, nil
}

type writeRecord struct {
	offset int64
	length int
}

// fakeFile collects offset writes into an in-memory image.
type fakeFile struct {
	data   []byte
	writes []writeRecord
	closes int

	// failAfterWrites makes every write past the Nth fail; zero disables.
	failAfterWrites int
}

func (f *fakeFile) WriteAt(p []byte, off int64) (int, error) {
	if f.failAfterWrites > 0 && len(f.writes) >= f.failAfterWrites {
		return 0, errors.New("broken pipe")
	}
	if need := off + int64(len(p)); need > int64(len(f.data)) {
		grown := make([]byte, need)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[off:], p)
	f.writes = append(f.writes, writeRecord{offset: off, length: len(p)})
	return len(p), nil
}

func (f *fakeFile) Close() error {
	f.closes++
	return nil
}

// fakeSink hands out fakeFiles and remembers the last one.
type fakeSink struct {
	maxUnit int
	openErr error
	opens   int
	file    *fakeFile
}

func (s *fakeSink) MaxWriteUnit() int { return s.maxUnit }

func (s *fakeSink) Open(name string) (SinkFile, error) {
	s.opens++
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.file = &fakeFile{}
	return s.file, nil
}
