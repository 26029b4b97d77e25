package audio

import "encoding/binary"

const (
	// SampleRate is the capture rate for all recordings.
	SampleRate = 16000
	// BytesPerSecond for 16kHz mono s16 PCM.
	BytesPerSecond = SampleRate * 2

	wavHeaderSize = 44
)

// EncodeWAV wraps raw 16kHz mono s16 PCM in a RIFF/WAVE container.
func EncodeWAV(pcm []byte) []byte {
	out := make([]byte, wavHeaderSize+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], 1) // mono
	binary.LittleEndian.PutUint32(out[24:28], SampleRate)
	binary.LittleEndian.PutUint32(out[28:32], BytesPerSecond)
	binary.LittleEndian.PutUint16(out[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)

	return out
}
