package transcription

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// PCM is the decoded content of a PCM WAV file
type PCM struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	Data          []byte
}

// ReadWAV loads a PCM WAV file. Only uncompressed PCM (format tag 1) is accepted.
func ReadWAV(path string) (*PCM, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWAV(raw)
}

// ParseWAV decodes a RIFF/WAVE byte stream
func ParseWAV(raw []byte) (*PCM, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	var pcm PCM
	var haveFmt, haveData bool
	r := bytes.NewReader(raw[12:])
	for !haveData {
		var header struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read chunk header: %w", err)
		}

		size := int64(header.Size)
		switch string(header.ID[:]) {
		case "fmt ":
			var f struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if size < 16 {
				return nil, errors.New("fmt chunk too short")
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			if f.AudioFormat != 1 {
				return nil, fmt.Errorf("unsupported WAV format tag %d", f.AudioFormat)
			}
			pcm.Channels = int(f.Channels)
			pcm.SampleRate = int(f.SampleRate)
			pcm.BitsPerSample = int(f.BitsPerSample)
			haveFmt = true
			if _, err := r.Seek(size-16+size%2, io.SeekCurrent); err != nil {
				return nil, err
			}
		case "data":
			if size > int64(r.Len()) {
				// ffmpeg writing to a pipe leaves the size unset; take what is there
				size = int64(r.Len())
			}
			pcm.Data = make([]byte, size)
			if _, err := io.ReadFull(r, pcm.Data); err != nil {
				return nil, fmt.Errorf("read data chunk: %w", err)
			}
			haveData = true
		default:
			if _, err := r.Seek(size+size%2, io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}

	if !haveFmt || !haveData {
		return nil, errors.New("WAV file lacks fmt or data chunk")
	}
	if pcm.Channels == 0 || pcm.SampleRate == 0 || pcm.BitsPerSample == 0 {
		return nil, errors.New("WAV header has zero channels, rate or sample size")
	}
	return &pcm, nil
}

func (p *PCM) blockAlign() int {
	return p.Channels * p.BitsPerSample / 8
}

// Duration is the playback length of the data
func (p *PCM) Duration() time.Duration {
	bytesPerSecond := p.SampleRate * p.blockAlign()
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(len(p.Data)) * time.Second / time.Duration(bytesPerSecond)
}

// Split cuts the data into consecutive WAV files of at most maxLen each.
// Cuts fall on sample frame boundaries.
func (p *PCM) Split(maxLen time.Duration) [][]byte {
	frame := p.blockAlign()
	chunkBytes := int(maxLen.Seconds() * float64(p.SampleRate))
	chunkBytes *= frame
	if chunkBytes <= 0 {
		chunkBytes = len(p.Data)
	}

	var chunks [][]byte
	for start := 0; start < len(p.Data); start += chunkBytes {
		end := start + chunkBytes
		if end > len(p.Data) {
			end = len(p.Data) - (len(p.Data)-start)%frame
		}
		if end <= start {
			break
		}
		chunks = append(chunks, EncodeWAV(p.Channels, p.SampleRate, p.BitsPerSample, p.Data[start:end]))
	}
	return chunks
}

// EncodeWAV wraps raw PCM data in a canonical 44-byte WAV header
func EncodeWAV(channels, sampleRate, bitsPerSample int, data []byte) []byte {
	blockAlign := channels * bitsPerSample / 8
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(data)))

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, struct {
		Size          uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{16, 1, uint16(channels), uint32(sampleRate), uint32(sampleRate * blockAlign), uint16(blockAlign), uint16(bitsPerSample)})
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}
