package crc32c

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishedVectors(t *testing.T) {
	assert.Equal(t, uint32(0xE3069283), Of([]byte("123456789")))
	assert.Equal(t, uint32(0xC99465AA), Of([]byte("hello world")))
}

func TestStreamingMatchesSingleShot(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	whole := Of(data)

	running := uint32(0)
	for i := 0; i < len(data); i += 7 {
		end := i + 7
		if end > len(data) {
			end = len(data)
		}
		running = Checksum(running, data[i:end])
	}

	assert.Equal(t, whole, running)
}

func TestEmptyInput(t *testing.T) {
	assert.Equal(t, uint32(0), Of(nil))
}
