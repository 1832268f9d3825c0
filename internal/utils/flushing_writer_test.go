package utils_test

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/forgeclone/internal/utils"
)

type countingFlusher struct {
	bytes.Buffer
	flushes int
}

func (flusher *countingFlusher) Flush() {
	flusher.flushes++
}

type failingFlusher struct {
	bytes.Buffer
}

func (flusher *failingFlusher) Flush() error {
	return errors.New("flush failed")
}

func TestFlushingWriterFlushesBufferedDestination(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	bufferedWriter := bufio.NewWriterSize(destination, 4096)

	writer := utils.NewFlushingWriter(bufferedWriter)
	bytesWritten, writeError := writer.Write([]byte("Do you want to clone all 3 repositories? (y/N) "))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 47, bytesWritten)
	require.Equal(testInstance, "Do you want to clone all 3 repositories? (y/N) ", destination.String())
}

func TestFlushingWriterVariants(testInstance *testing.T) {
	silent := &countingFlusher{}
	writer := utils.NewFlushingWriter(silent)
	_, writeError := writer.Write([]byte("line\n"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 1, silent.flushes)

	_, failingWriteError := utils.NewFlushingWriter(&failingFlusher{}).Write([]byte("line\n"))
	require.EqualError(testInstance, failingWriteError, "flush failed")

	require.Same(testInstance, writer, utils.NewFlushingWriter(writer))
	require.Nil(testInstance, utils.NewFlushingWriter(nil))
}
