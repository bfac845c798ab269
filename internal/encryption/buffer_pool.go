package encryption

import (
	"sync"
)

const defaultBufferSize = 64 * 1024

// bufferPool provides reusable read buffers for the streaming modes.
//
//nolint:gochecknoglobals
var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, defaultBufferSize)

		return &buf
	},
}

func getBuffer() *[]byte {
	buf, _ := bufferPool.Get().(*[]byte) //nolint:errcheck // pool only stores *[]byte

	return buf
}

func putBuffer(buf *[]byte) {
	bufferPool.Put(buf)
}
