package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pcmFrame(left, right int16) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:], uint16(left))
	binary.LittleEndian.PutUint16(buf[2:], uint16(right))
	return buf
}

func TestConvertPCM_Basic(t *testing.T) {
	var buf []byte
	buf = append(buf, pcmFrame(0, 0)...)
	buf = append(buf, pcmFrame(16384, -16384)...)
	buf = append(buf, pcmFrame(32767, -32768)...)

	samples := make([][2]float64, 3)
	n := convertPCM(buf, samples)

	assert.Equal(t, 3, n)
	assert.Equal(t, [2]float64{0, 0}, samples[0])
	assert.Equal(t, 0.5, samples[1][0])
	assert.Equal(t, -0.5, samples[1][1])
	assert.InDelta(t, 1.0, samples[2][0], 0.001)
	assert.Equal(t, -1.0, samples[2][1])
}

func TestConvertPCM_TruncatedFrame(t *testing.T) {
	// 6 bytes is one full frame plus half of a second one
	buf := append(pcmFrame(100, 200), 0x01, 0x02)

	samples := make([][2]float64, 4)
	n := convertPCM(buf, samples)

	assert.Equal(t, 1, n, "partial trailing frame must be dropped")
}

func TestConvertPCM_OutputBounded(t *testing.T) {
	var buf []byte
	for range 8 {
		buf = append(buf, pcmFrame(1, 1)...)
	}

	samples := make([][2]float64, 4)
	n := convertPCM(buf, samples)

	assert.Equal(t, 4, n, "conversion must stop at the output buffer")
}

func TestConvertPCM_Empty(t *testing.T) {
	samples := make([][2]float64, 4)
	assert.Equal(t, 0, convertPCM(nil, samples))
}
