// Package buffers provides reusable byte buffers for streaming copies.
// Pooling the copy buffers keeps sequential batch exports from churning
// the heap when many files are exported in one run.
package buffers

import (
	"sync"
)

// CopyBufferSize is the size of the fixed buffer used for source-to-destination
// streaming. Any reasonable size works; 32 KB matches what io.Copy allocates.
const CopyBufferSize = 32 * 1024

var copyPool = &sync.Pool{
	New: func() interface{} {
		buf := make([]byte, CopyBufferSize)
		return &buf
	},
}

// GetCopyBuffer retrieves a buffer from the pool. Return it with PutCopyBuffer
// when the copy finishes.
//
// Usage:
//
//	buf := buffers.GetCopyBuffer()
//	defer buffers.PutCopyBuffer(buf)
//	n, err := src.Read(*buf)
func GetCopyBuffer() *[]byte {
	return copyPool.Get().(*[]byte)
}

// PutCopyBuffer returns a buffer to the pool. Only buffers of the expected
// size are pooled; the buffer must not be used after this call.
func PutCopyBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == CopyBufferSize {
		copyPool.Put(buf)
	}
}
