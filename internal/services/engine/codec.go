package engine

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const encodeBitDepth = 16

// Decode reads a WAV container into a mono PCM buffer normalized to
// [-1, 1]. Multi-channel input is averaged down to one channel.
func (l *Library) Decode(r io.ReadSeeker) (*Buffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrUnsupportedContainer
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}
	if pcm == nil || len(pcm.Data) == 0 {
		return nil, ErrEmptyBuffer
	}

	channels := pcm.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth <= 0 {
		bitDepth = encodeBitDepth
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(pcm.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(pcm.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float64(channels)
	}

	return &Buffer{
		SampleRate:     pcm.Format.SampleRate,
		SourceChannels: channels,
		Samples:        samples,
	}, nil
}

// EncodeWAV serializes a buffer into 16-bit mono WAV bytes
func (l *Library) EncodeWAV(buf *Buffer) ([]byte, error) {
	if buf == nil || len(buf.Samples) == 0 {
		return nil, ErrEmptyBuffer
	}

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * 32767))
	}

	ws := &writeSeekBuffer{}
	encoder := wav.NewEncoder(ws, buf.SampleRate, encodeBitDepth, 1, 1)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: encodeBitDepth,
	}
	if err := encoder.Write(ib); err != nil {
		return nil, fmt.Errorf("encoding WAV data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("finalizing WAV container: %w", err)
	}

	return ws.buf, nil
}

// writeSeekBuffer adapts an in-memory byte slice to io.WriteSeeker for
// the WAV encoder, which seeks back to patch chunk sizes on Close.
type writeSeekBuffer struct {
	buf []byte
	pos int
}

func (w *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		grown := make([]byte, need)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(w.pos) + offset
	case io.SeekEnd:
		next = int64(len(w.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position: %d", next)
	}
	w.pos = int(next)
	return next, nil
}
