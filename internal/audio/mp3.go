package audio

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

// mp3Stream adapts llehouerou/go-mp3 to beep.StreamSeekCloser.
// go-mp3 emits interleaved 16-bit little-endian stereo PCM.
type mp3Stream struct {
	dec    *mp3.Decoder
	closer io.Closer
	rate   beep.SampleRate
	err    error
	buf    []byte
}

const mp3BytesPerSample = 4 // stereo, 16-bit

func newMP3Stream(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	dec, err := mp3.NewDecoder(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if dec.SampleRate() == 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}

	s := &mp3Stream{
		dec:    dec,
		closer: rc,
		rate:   beep.SampleRate(dec.SampleRate()),
		buf:    make([]byte, 8192),
	}
	format := beep.Format{
		SampleRate:  s.rate,
		NumChannels: 2,
		Precision:   2,
	}
	return s, format, nil
}

func (s *mp3Stream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}

	want := len(samples) * mp3BytesPerSample
	if len(s.buf) < want {
		s.buf = make([]byte, want)
	}

	read, err := io.ReadFull(s.dec, s.buf[:want])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.err = err
		return 0, false
	}

	n = convertPCM(s.buf[:read], samples)
	return n, n > 0
}

// convertPCM converts interleaved 16-bit little-endian stereo PCM into
// beep's float64 sample frames. Returns the number of frames written.
func convertPCM(buf []byte, samples [][2]float64) int {
	n := 0
	for i := 0; i+mp3BytesPerSample <= len(buf) && n < len(samples); i += mp3BytesPerSample {
		left := int16(binary.LittleEndian.Uint16(buf[i:]))    //nolint:gosec // audio samples
		right := int16(binary.LittleEndian.Uint16(buf[i+2:])) //nolint:gosec // audio samples
		samples[n] = [2]float64{float64(left) / 32768.0, float64(right) / 32768.0}
		n++
	}
	return n
}

func (s *mp3Stream) Err() error {
	return s.err
}

func (s *mp3Stream) Len() int {
	count := s.dec.SampleCount()
	if count < 0 {
		return 0
	}
	return int(count)
}

func (s *mp3Stream) Position() int {
	return int(s.dec.SamplePosition())
}

func (s *mp3Stream) Seek(p int) error {
	if p < 0 {
		p = 0
	}
	if l := s.Len(); p > l {
		p = l
	}
	if err := s.dec.SeekToSample(int64(p)); err != nil {
		return err
	}
	s.err = nil
	return nil
}

func (s *mp3Stream) Close() error {
	return s.closer.Close()
}
