package engine

// Buffer is an in-memory PCM representation of a track, mixed down to
// mono, independent of the container it was decoded from. Buffers are
// read-only once published; any transformation produces a new Buffer.
type Buffer struct {
	SampleRate     int
	SourceChannels int
	Samples        []float64 // normalized to [-1, 1]
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Window copies n samples starting at the given sample offset into dst.
// Regions past the end of the buffer are left as silence.
func (b *Buffer) Window(offset, n int, dst []float64) {
	for i := 0; i < n; i++ {
		dst[i] = 0
	}
	if b == nil || offset >= len(b.Samples) {
		return
	}
	if offset < 0 {
		offset = 0
	}
	copy(dst, b.Samples[offset:min(offset+n, len(b.Samples))])
}
