//go:build tinygo

package hal

import (
	"io"
	"machine"
)

// Console returns the serial console as a writer for the logger. Line feeds
// are sent as CRLF.
func Console() io.Writer {
	return consoleWriter{out: machine.Serial}
}

type consoleWriter struct {
	out machine.Serialer
}

func (w consoleWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			w.out.WriteByte('\r')
		}
		w.out.WriteByte(b)
	}
	return len(p), nil
}
