package pkg

import (
	"io"

	"go.uber.org/multierr"
)

type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		writers: writers,
	}
}

func (w *CombinedWriter) Write(p []byte) (n int, err error) {
	for _, writer := range w.writers {
		if n, wErr := writer.Write(p); wErr != nil {
			err = multierr.Append(err, wErr)
		} else if n != len(p) {
			err = multierr.Append(err, io.ErrShortWrite)
		}
	}
	return len(p), err
}
