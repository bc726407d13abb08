package transcription

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func pcmSeconds(seconds float64) []byte {
	n := int(seconds*16000) * 2
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestEncodeAndParseWAV(t *testing.T) {
	data := pcmSeconds(1.5)
	raw := EncodeWAV(1, 16000, 16, data)

	if len(raw) != 44+len(data) {
		t.Fatalf("encoded length = %d, want %d", len(raw), 44+len(data))
	}

	pcm, err := ParseWAV(raw)
	if err != nil {
		t.Fatalf("ParseWAV failed: %v", err)
	}
	if pcm.Channels != 1 || pcm.SampleRate != 16000 || pcm.BitsPerSample != 16 {
		t.Errorf("unexpected header %+v", pcm)
	}
	if !bytes.Equal(pcm.Data, data) {
		t.Error("data round trip mismatch")
	}
	if pcm.Duration() != 1500*time.Millisecond {
		t.Errorf("duration = %v, want 1.5s", pcm.Duration())
	}
}

func TestParseWAVSkipsUnknownChunks(t *testing.T) {
	data := pcmSeconds(0.1)
	raw := EncodeWAV(1, 16000, 16, data)

	// splice a LIST chunk with odd size (padded) between fmt and data
	list := append([]byte("LIST"), 3, 0, 0, 0, 'a', 'b', 'c', 0)
	spliced := append(append(append([]byte{}, raw[:36]...), list...), raw[36:]...)

	pcm, err := ParseWAV(spliced)
	if err != nil {
		t.Fatalf("ParseWAV failed: %v", err)
	}
	if !bytes.Equal(pcm.Data, data) {
		t.Error("data mismatch after unknown chunk")
	}
}

func TestParseWAVRejectsGarbage(t *testing.T) {
	tests := map[string][]byte{
		"empty":     nil,
		"not riff":  []byte("this is not a wav file at all"),
		"no data":   EncodeWAV(1, 16000, 16, nil)[:36],
		"non pcm":   func() []byte { b := EncodeWAV(1, 16000, 16, pcmSeconds(0.01)); b[20] = 3; return b }(),
		"zero rate": EncodeWAV(1, 0, 16, pcmSeconds(0.01)),
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseWAV(raw); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSplitRespectsMaxLength(t *testing.T) {
	pcm := &PCM{Channels: 1, SampleRate: 16000, BitsPerSample: 16, Data: pcmSeconds(2.5)}

	chunks := pcm.Split(time.Second)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	var joined []byte
	for i, c := range chunks {
		parsed, err := ParseWAV(c)
		if err != nil {
			t.Fatalf("chunk %d is not valid WAV: %v", i, err)
		}
		if parsed.Duration() > time.Second {
			t.Errorf("chunk %d lasts %v", i, parsed.Duration())
		}
		joined = append(joined, parsed.Data...)
	}
	if !bytes.Equal(joined, pcm.Data) {
		t.Error("chunks do not reassemble to the original data")
	}
}

func TestReadWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, EncodeWAV(1, 16000, 16, pcmSeconds(0.2)), 0o644); err != nil {
		t.Fatal(err)
	}
	pcm, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if pcm.Duration() != 200*time.Millisecond {
		t.Errorf("duration = %v", pcm.Duration())
	}

	if _, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
