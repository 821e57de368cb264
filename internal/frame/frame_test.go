package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello world")))

	got, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got)
}

func TestReadFrameMultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("one")))
	require.NoError(t, WriteFrame(&buf, []byte("two")))

	first, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), first)

	second, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), second)
}

func TestReadFrameEOFWithNoData(t *testing.T) {
	_, err := ReadFrame(&bytes.Buffer{}, 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameTruncatedStream(t *testing.T) {
	// no terminator byte at all
	_, err := ReadFrame(bytes.NewReader([]byte("partial")), 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestReadFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, bytes.Repeat([]byte("a"), 100)))

	_, err := ReadFrame(&buf, 10)
	assert.Error(t, err)
}

func TestReadFrameEmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{}))

	got, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
