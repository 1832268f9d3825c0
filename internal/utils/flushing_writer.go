package utils

import (
	"io"
	"sync"
)

type errorFlusher interface {
	Flush() error
}

type silentFlusher interface {
	Flush()
}

// FlushingWriter serializes writes from table and summary rendering and
// flushes buffered destinations after every write so that prompts appear
// before input is read.
type FlushingWriter struct {
	destination io.Writer
	mutex       sync.Mutex
}

// NewFlushingWriter wraps writer. Wrapping a FlushingWriter returns it unchanged and a nil writer yields nil.
func NewFlushingWriter(writer io.Writer) io.Writer {
	switch typedWriter := writer.(type) {
	case nil:
		return nil
	case *FlushingWriter:
		return typedWriter
	default:
		return &FlushingWriter{destination: writer}
	}
}

// Write forwards data and flushes the destination when it buffers output.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.destination == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	switch flushable := flushingWriter.destination.(type) {
	case errorFlusher:
		return bytesWritten, flushable.Flush()
	case silentFlusher:
		flushable.Flush()
	}
	return bytesWritten, nil
}
