package storage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
)

// ErrLineTooLong is yielded for a line longer than the configured maximum.
// It does not end the sequence; the oversized line is skipped.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// readChunkBytes is the read buffer size; longer lines are assembled from
// several chunks.
const readChunkBytes = 64 * 1024

// openFunc opens the byte stream behind one file. It returns a classified
// StorageError on failure.
type openFunc func(ctx context.Context) (io.ReadCloser, error)

// scanLines adapts an opened stream into a lazy line sequence. The stream is
// closed when the sequence ends or the consumer stops early.
func scanLines(ctx context.Context, location string, maxLineBytes int, open openFunc) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rc, err := open(ctx)
		if err != nil {
			yield("", err)
			return
		}
		defer func() { _ = rc.Close() }()

		br := bufio.NewReaderSize(rc, min(readChunkBytes, max(maxLineBytes, 16)))
		var (
			line    []byte
			tooLong bool
		)
		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			chunk, err := br.ReadSlice('\n')
			if !tooLong {
				line = append(line, chunk...)
				// Past the limit plus a "\r\n" terminator the line can only be
				// dropped, so stop buffering it.
				if len(line) > maxLineBytes+2 {
					tooLong = true
					line = line[:0]
				}
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			atEOF := errors.Is(err, io.EOF)
			if err != nil && !atEOF {
				if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) {
					yield("", err)
					return
				}
				yield("", newError(KindNetwork, location, err))
				return
			}

			if !atEOF || tooLong || len(line) > 0 {
				text := bytes.TrimSuffix(bytes.TrimSuffix(line, []byte("\n")), []byte("\r"))
				var ok bool
				if tooLong || len(text) > maxLineBytes {
					ok = yield("", fmt.Errorf("%w of %d bytes", ErrLineTooLong, maxLineBytes))
				} else {
					ok = yield(string(text), nil)
				}
				if !ok {
					return
				}
			}
			if atEOF {
				return
			}
			line, tooLong = line[:0], false
		}
	}
}
