package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"testing"

	"github.com/hajimehoshi/go-mp3"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestMP3Decoder_SplitsStereoFrames(t *testing.T) {
	data := readFixture(t, "stereo-32k.mp3")

	ref, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reference decoder: %v", err)
	}
	interleaved, err := io.ReadAll(ref)
	if err != nil {
		t.Fatalf("reference read: %v", err)
	}

	pcm, err := mp3Decoder{}.Decode(context.Background(), data, Detection{Format: FormatMP3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pcm.SampleRate != 32000 {
		t.Errorf("expected 32000 Hz, got %d", pcm.SampleRate)
	}
	if len(pcm.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(pcm.Channels))
	}

	frames := len(interleaved) / 4
	if frames == 0 {
		t.Fatal("expected decoded frames")
	}
	if len(pcm.Channels[0]) != frames || len(pcm.Channels[1]) != frames {
		t.Fatalf("expected %d frames per channel, got %d/%d", frames, len(pcm.Channels[0]), len(pcm.Channels[1]))
	}
	for i := 0; i < frames; i++ {
		left := float32(int16(binary.LittleEndian.Uint16(interleaved[i*4:]))) / 32768
		right := float32(int16(binary.LittleEndian.Uint16(interleaved[i*4+2:]))) / 32768
		if pcm.Channels[0][i] != left || pcm.Channels[1][i] != right {
			t.Fatalf("frame %d: expected (%v, %v), got (%v, %v)", i, left, right, pcm.Channels[0][i], pcm.Channels[1][i])
		}
	}
}

func TestNormalize_MP3KeepsRateAndChannels(t *testing.T) {
	data := readFixture(t, "stereo-32k.mp3")

	asset, err := newTestNormalizer().Normalize(context.Background(), data, "audio/mpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.Channels != 2 || asset.SampleRate != 32000 {
		t.Errorf("expected stereo 32000 Hz, got %d ch %d Hz", asset.Channels, asset.SampleRate)
	}
	if asset.Duration <= 0 {
		t.Errorf("expected positive duration, got %v", asset.Duration)
	}
	if string(asset.Data[:4]) != "RIFF" {
		t.Errorf("expected RIFF output, got %q", asset.Data[:4])
	}
}
