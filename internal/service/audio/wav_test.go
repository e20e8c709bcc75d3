package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"speech-digest-service/internal/apperrors"
)

// extensibleWAV builds a WAVE_FORMAT_EXTENSIBLE file with 16-bit interleaved samples.
func extensibleWAV(t *testing.T, sampleRate, channels int, subFormat uint16, samples []int16) []byte {
	t.Helper()
	var fmtChunk bytes.Buffer
	le := func(v any) {
		if err := binary.Write(&fmtChunk, binary.LittleEndian, v); err != nil {
			t.Fatalf("write fmt: %v", err)
		}
	}
	le(uint16(wavFormatExtensible))
	le(uint16(channels))
	le(uint32(sampleRate))
	le(uint32(sampleRate * channels * 2))
	le(uint16(channels * 2))
	le(uint16(16))
	le(uint16(22))
	le(uint16(16))
	le(uint32(0x3))
	le(subFormat)
	fmtChunk.Write(ksDataFormatSuffix)

	var dataChunk bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&dataChunk, binary.LittleEndian, s)
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(4+8+fmtChunk.Len()+8+dataChunk.Len()))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	_ = binary.Write(&out, binary.LittleEndian, uint32(fmtChunk.Len()))
	out.Write(fmtChunk.Bytes())
	out.WriteString("data")
	_ = binary.Write(&out, binary.LittleEndian, uint32(dataChunk.Len()))
	out.Write(dataChunk.Bytes())
	return out.Bytes()
}

func TestNormalize_ExtensiblePCMKeepsLayout(t *testing.T) {
	samples := []int16{-32768, 16384, 0, -16384, 32767, 1000}
	in := extensibleWAV(t, 22050, 2, wavFormatPCM, samples)

	asset, err := newTestNormalizer().Normalize(context.Background(), in, "audio/wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.Channels != 2 || asset.SampleRate != 22050 {
		t.Fatalf("expected stereo 22050 Hz, got %d ch %d Hz", asset.Channels, asset.SampleRate)
	}

	body := asset.Data[WAVHeaderSize:]
	if len(body) != len(samples)*2 {
		t.Fatalf("expected %d data bytes, got %d", len(samples)*2, len(body))
	}
	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(body[i*2:]))
		if d := int(want) - int(got); d > 1 || d < -1 {
			t.Errorf("sample %d: expected %d ±1, got %d", i, want, got)
		}
	}
}

func TestNormalize_ExtensibleNonPCMNeedsTranscoder(t *testing.T) {
	in := extensibleWAV(t, 16000, 1, 0x0003, []int16{0, 0})

	_, err := newTestNormalizer().Normalize(context.Background(), in, "audio/wav")
	if !apperrors.Is(err, apperrors.CodeDecode) {
		t.Errorf("expected DECODE_FAILED without ffmpeg, got %v", err)
	}
}

func TestExtensibleSubFormat(t *testing.T) {
	plain, _ := EncodeWAV(&PCM{SampleRate: 8000, Channels: [][]float32{{0}}})
	badGUID := extensibleWAV(t, 8000, 1, wavFormatPCM, []int16{0})
	copy(badGUID[12+8+24+2:], []byte{0xFF, 0xFF})

	tests := []struct {
		name   string
		data   []byte
		sub    uint16
		wantOK bool
	}{
		{"pcm", extensibleWAV(t, 8000, 1, wavFormatPCM, []int16{0}), wavFormatPCM, true},
		{"float", extensibleWAV(t, 8000, 1, 0x0003, []int16{0}), 0x0003, true},
		{"plain fmt chunk", plain, 0, false},
		{"foreign guid", badGUID, 0, false},
		{"not riff", []byte("definitely not a wave file"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, ok := extensibleSubFormat(tt.data)
			if ok != tt.wantOK || sub != tt.sub {
				t.Errorf("expected (%#x, %v), got (%#x, %v)", tt.sub, tt.wantOK, sub, ok)
			}
		})
	}
}
