package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WAV holds decoded 16-bit PCM audio, downmixed to mono.
type WAV struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Duration returns the audio length in seconds.
func (w WAV) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// ReadWAV decodes a 16-bit PCM RIFF/WAVE file.
func ReadWAV(path string) (WAV, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WAV{}, fmt.Errorf("read wav: %w", err)
	}
	return DecodeWAV(data)
}

// DecodeWAV parses an in-memory WAV file. Multi-channel audio is averaged into one channel.
func DecodeWAV(data []byte) (WAV, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAV{}, errors.New("decode wav: not a RIFF/WAVE file")
	}
	var (
		out     WAV
		bits    int
		haveFmt bool
		pcm     []byte
	)
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + size
		if end > len(data) {
			end = len(data)
		}
		switch id {
		case "fmt ":
			if end-body < 16 {
				return WAV{}, errors.New("decode wav: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 && format != 0xFFFE {
				return WAV{}, fmt.Errorf("decode wav: unsupported encoding %d", format)
			}
			out.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			out.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body:end]
		}
		// chunks are word aligned
		offset = body + size + size%2
	}
	if !haveFmt {
		return WAV{}, errors.New("decode wav: missing fmt chunk")
	}
	if bits != 16 {
		return WAV{}, fmt.Errorf("decode wav: unsupported bit depth %d", bits)
	}
	if out.Channels <= 0 {
		return WAV{}, errors.New("decode wav: zero channels")
	}

	frames := len(pcm) / (2 * out.Channels)
	out.Samples = make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < out.Channels; c++ {
			pos := (i*out.Channels + c) * 2
			sum += int(int16(binary.LittleEndian.Uint16(pcm[pos : pos+2])))
		}
		out.Samples[i] = int16(sum / out.Channels)
	}
	return out, nil
}

// EncodeWAV writes mono 16-bit PCM samples as a WAV file.
func EncodeWAV(w io.Writer, sampleRate int, samples []int16) error {
	var buf bytes.Buffer
	dataSize := uint32(len(samples) * 2)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	_, err := w.Write(buf.Bytes())
	return err
}
