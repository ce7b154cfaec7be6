package live

import (
	"encoding/base64"
	"math"
)

// Audio formats spoken on the wire. Input is what the microphone side sends,
// output is what the model's synthesized speech arrives as.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000

	InputMIMEType = "audio/pcm;rate=16000"
)

// EncodeFrame converts floating-point samples in [-1, 1] to base64-encoded
// 16-bit little-endian PCM. Samples are scaled by 32768 and truncated; values
// outside [-1, 1] are not clamped and wrap around, matching the reference
// encoder byte for byte.
func EncodeFrame(samples []float32) string {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(s * 32768)
		buf[i*2] = byte(v)
		buf[i*2+1] = byte(v >> 8)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeFrame converts base64-encoded 16-bit little-endian PCM into
// per-channel floating-point samples normalized by 32768. Byte lengths that
// are not a whole number of interleaved frames are truncated; the number of
// discarded trailing bytes is returned so callers can report it without
// failing the decode.
func DecodeFrame(data string, channels int) (chans [][]float32, truncated int, err error) {
	if channels <= 0 {
		channels = 1
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, 0, err
	}
	frameBytes := channels * 2
	frames := len(raw) / frameBytes
	truncated = len(raw) - frames*frameBytes

	chans = make([][]float32, channels)
	for c := range chans {
		chans[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			v := int16(raw[off]) | int16(raw[off+1])<<8
			chans[c][i] = float32(v) / 32768.0
		}
	}
	return chans, truncated, nil
}

// BytesToSamples reinterprets 16-bit little-endian PCM bytes as normalized
// floating-point samples. A trailing odd byte is ignored.
func BytesToSamples(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		out[i] = float32(v) / 32768.0
	}
	return out
}

// SamplesToBytes packs normalized floating-point samples as 16-bit
// little-endian PCM, with the same truncating scale as EncodeFrame.
func SamplesToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(s * 32768)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// RMSEnergy computes the root-mean-square energy of 16-bit signed
// little-endian PCM, between 0.0 and 1.0. Used for the capture level meter.
func RMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}
