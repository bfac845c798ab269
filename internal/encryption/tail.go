package encryption

import (
	"io"
)

// tailReader passes through everything read from r except the final n bytes,
// which become available from Tail once Read has returned io.EOF.
type tailReader struct {
	r    io.Reader
	n    int
	buf  []byte
	eof  bool
	read []byte
}

func newTailReader(r io.Reader, n int) *tailReader {
	return &tailReader{
		r:    r,
		n:    n,
		buf:  make([]byte, 0, 2*n),
		read: make([]byte, defaultBufferSize),
	}
}

func (t *tailReader) Read(p []byte) (int, error) {
	for {
		if len(t.buf) > t.n {
			k := copy(p, t.buf[:len(t.buf)-t.n])
			t.buf = append(t.buf[:0], t.buf[k:]...)

			return k, nil
		}

		if t.eof {
			return 0, io.EOF
		}

		m, err := t.r.Read(t.read)
		t.buf = append(t.buf, t.read[:m]...)

		if err == io.EOF {
			t.eof = true

			continue
		}

		if err != nil {
			return 0, err
		}
	}
}

// Tail returns the held back bytes. It holds fewer than n bytes if the input was shorter.
func (t *tailReader) Tail() []byte {
	return t.buf
}
