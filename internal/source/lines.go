package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
)

const readBufferSize = 64 << 10

// LineFunc receives one non-blank line, trimmed, and the input offset just
// after it. The slice is only valid for the duration of the call.
type LineFunc func(line []byte, next int64) error

// ReadLines calls fn for every non-blank line of r until EOF, ctx ends or
// fn fails. A final line without a trailing newline is still delivered.
// It returns the number of lines passed to fn.
func ReadLines(ctx context.Context, r io.Reader, fn LineFunc) (int, error) {
	br := bufio.NewReaderSize(r, readBufferSize)
	var offset int64
	n := 0

	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		raw, err := br.ReadBytes('\n')
		offset += int64(len(raw))
		if line := bytes.TrimSpace(raw); len(line) > 0 {
			if ferr := fn(line, offset); ferr != nil {
				return n, ferr
			}
			n++
		}

		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}
