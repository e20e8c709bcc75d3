package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"speech-digest-service/internal/apperrors"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(WithFFmpeg(""))
}

func TestNormalize_RawPCMProducesCanonicalContainer(t *testing.T) {
	raw := make([]byte, 90000)
	for i := 0; i < len(raw); i += 2 {
		binary.LittleEndian.PutUint16(raw[i:], uint16(int16(i%2000-1000)))
	}

	asset, err := newTestNormalizer().Normalize(context.Background(), raw, "audio/L16; rate=16000; channels=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(asset.Data) != 44+90000 {
		t.Errorf("expected %d bytes, got %d", 44+90000, len(asset.Data))
	}
	if asset.Data[22] != 1 {
		t.Errorf("expected channel count byte 1, got %d", asset.Data[22])
	}
	if asset.SampleRate != 16000 || asset.Channels != 1 {
		t.Errorf("expected 16000 Hz mono, got %d Hz %d ch", asset.SampleRate, asset.Channels)
	}
	if asset.Duration != 45000.0/16000.0 {
		t.Errorf("expected duration %f, got %f", 45000.0/16000.0, asset.Duration)
	}
	if asset.MimeType != CanonicalMimeType || asset.Extension != "wav" {
		t.Errorf("unexpected mime/extension %s/%s", asset.MimeType, asset.Extension)
	}
}

func TestEncodeWAV_HeaderFields(t *testing.T) {
	pcm := &PCM{
		SampleRate: 44100,
		Channels:   [][]float32{make([]float32, 10), make([]float32, 10)},
	}

	out, err := EncodeWAV(pcm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dataBytes := uint32(10 * 2 * 2)
	le := binary.LittleEndian
	checks := []struct {
		name     string
		got      uint32
		expected uint32
	}{
		{"chunk size", le.Uint32(out[4:8]), 36 + dataBytes},
		{"fmt size", le.Uint32(out[16:20]), 16},
		{"pcm marker", uint32(le.Uint16(out[20:22])), 1},
		{"channels", uint32(le.Uint16(out[22:24])), 2},
		{"sample rate", le.Uint32(out[24:28]), 44100},
		{"byte rate", le.Uint32(out[28:32]), 44100 * 2 * 2},
		{"block align", uint32(le.Uint16(out[32:34])), 4},
		{"bits per sample", uint32(le.Uint16(out[34:36])), 16},
		{"data size", le.Uint32(out[40:44]), dataBytes},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s: expected %d, got %d", c.name, c.expected, c.got)
		}
	}

	for _, tag := range []struct {
		off int
		id  string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(out[tag.off : tag.off+4]); got != tag.id {
			t.Errorf("expected %q at %d, got %q", tag.id, tag.off, got)
		}
	}
	if len(out) != WAVHeaderSize+int(dataBytes) {
		t.Errorf("expected %d bytes, got %d", WAVHeaderSize+int(dataBytes), len(out))
	}
}

func TestEncodeWAV_InterleavesChannels(t *testing.T) {
	pcm := &PCM{
		SampleRate: 8000,
		Channels:   [][]float32{{0.5, -0.5}, {1, -1}},
	}

	out, err := EncodeWAV(pcm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []int16{16383, 32767, -16384, -32768}
	for i, want := range expected {
		got := int16(binary.LittleEndian.Uint16(out[WAVHeaderSize+i*2:]))
		if got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		in       float32
		expected int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{2.5, 32767},
		{-3, -32768},
		{0.5, 16383},
		{-0.5, -16384},
		{0.99999, 32766},
	}

	for _, tt := range tests {
		if got := FloatToInt16(tt.in); got != tt.expected {
			t.Errorf("FloatToInt16(%v) = %d, want %d", tt.in, got, tt.expected)
		}
	}
}

func TestWAV_RoundTripWithinOneLSB(t *testing.T) {
	values := []int16{0, 1, -1, 100, -100, 12345, -12345, 32767, -32768, 20000, -20000, 7}
	left := make([]float32, len(values))
	right := make([]float32, len(values))
	for i, v := range values {
		left[i] = float32(v) / 32768
		right[i] = float32(values[len(values)-1-i]) / 32768
	}
	in := &PCM{SampleRate: 22050, Channels: [][]float32{left, right}}

	encoded, err := EncodeWAV(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeWAV(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.SampleRate != in.SampleRate {
		t.Errorf("expected sample rate %d, got %d", in.SampleRate, out.SampleRate)
	}
	if len(out.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(out.Channels))
	}
	for c := range in.Channels {
		if len(out.Channels[c]) != len(in.Channels[c]) {
			t.Fatalf("channel %d: expected %d samples, got %d", c, len(in.Channels[c]), len(out.Channels[c]))
		}
		for i := range in.Channels[c] {
			want := int(in.Channels[c][i] * 32768)
			got := int(out.Channels[c][i] * 32768)
			if d := want - got; d > 1 || d < -1 {
				t.Errorf("channel %d sample %d: expected %d ±1, got %d", c, i, want, got)
			}
		}
	}
}

func TestNormalize_WAVInputIsReencoded(t *testing.T) {
	in := &PCM{SampleRate: 16000, Channels: [][]float32{{0.1, 0.2, -0.3, 0.4}}}
	wavBytes, err := EncodeWAV(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	original := append([]byte(nil), wavBytes...)

	asset, err := newTestNormalizer().Normalize(context.Background(), wavBytes, "application/octet-stream")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(wavBytes, original) {
		t.Error("input buffer was modified")
	}
	if asset.Channels != 1 || asset.SampleRate != 16000 {
		t.Errorf("expected mono 16000 Hz, got %d ch %d Hz", asset.Channels, asset.SampleRate)
	}
	if len(asset.Data) != WAVHeaderSize+8 {
		t.Errorf("expected %d bytes, got %d", WAVHeaderSize+8, len(asset.Data))
	}
}

func TestNormalize_Errors(t *testing.T) {
	zeroChannels := &bytes.Buffer{}
	h := NewWAVHeader(16000, 0, 4)
	_ = h.Write(zeroChannels)
	zeroChannels.Write([]byte{0, 0, 0, 0})

	zeroRate := &bytes.Buffer{}
	h = NewWAVHeader(0, 1, 4)
	_ = h.Write(zeroRate)
	zeroRate.Write([]byte{0, 0, 0, 0})

	tests := []struct {
		name     string
		data     []byte
		mime     string
		expected apperrors.Code
	}{
		{"empty input", nil, "audio/wav", apperrors.CodeDecode},
		{"garbage without hint", []byte("this is definitely not audio at all"), "", apperrors.CodeDecode},
		{"garbage declared wav", []byte("this is definitely not audio at all"), "audio/wav", apperrors.CodeDecode},
		{"garbage declared mp3", []byte("this is definitely not audio at all"), "audio/mpeg", apperrors.CodeDecode},
		{"zero channels", zeroChannels.Bytes(), "audio/wav", apperrors.CodeUnsupportedFormat},
		{"zero sample rate", zeroRate.Bytes(), "audio/wav", apperrors.CodeUnsupportedFormat},
		{"raw pcm without rate", make([]byte, 64), "audio/L16", apperrors.CodeUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestNormalizer().Normalize(context.Background(), tt.data, tt.mime)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if code := apperrors.CodeOf(err); code != tt.expected {
				t.Errorf("expected code %s, got %s (%v)", tt.expected, code, err)
			}
		})
	}
}

func TestIdentify(t *testing.T) {
	wavBytes, _ := EncodeWAV(&PCM{SampleRate: 8000, Channels: [][]float32{{0}}})

	tests := []struct {
		name     string
		data     []byte
		mime     string
		expected Format
	}{
		{"riff magic wins over mime", wavBytes, "audio/mpeg", FormatWAV},
		{"id3 tag", append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 32)...), "", FormatMP3},
		{"flac magic", append([]byte("fLaC"), make([]byte, 32)...), "", FormatFLAC},
		{"ogg magic", append([]byte("OggS"), make([]byte, 32)...), "", FormatOGG},
		{"mpeg frame sync", append([]byte{0xff, 0xfb, 0x90, 0x00}, make([]byte, 8)...), "", FormatMP3},
		{"raw pcm mime", make([]byte, 32), "audio/L16; rate=8000", FormatRawPCM},
		{"mime fallback", []byte("0123456789abcdef"), "audio/x-m4a", FormatMP4},
		{"unknown", []byte("0123456789abcdef"), "", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identify(tt.data, tt.mime).Format; got != tt.expected {
				t.Errorf("expected format %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestContentTypeFromExtension(t *testing.T) {
	tests := map[string]string{
		"call.WAV":       "audio/wav",
		"meeting.mp3":    "audio/mpeg",
		"voice.m4a":      "audio/mp4",
		"podcast.ogg":    "audio/ogg",
		"recording.webm": "audio/webm",
	}
	for name, expected := range tests {
		if got := ContentTypeFromExtension(name); got != expected {
			t.Errorf("ContentTypeFromExtension(%s) = %s, want %s", name, got, expected)
		}
	}
}
