package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"

	"speech-digest-service/internal/apperrors"
)

// WAVHeaderSize is the size of the canonical PCM WAV header.
const WAVHeaderSize = 44

// PCM holds decoded audio as one float sample slice per channel, samples in [-1, 1].
type PCM struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of samples per channel.
func (p *PCM) Frames() int {
	if len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Duration returns the length of the buffer in seconds.
func (p *PCM) Duration() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// WAVHeader is the 44-byte header of a canonical 16-bit PCM WAV file.
type WAVHeader struct {
	ChunkID   [4]byte
	ChunkSize uint32
	Format    [4]byte

	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16

	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// NewWAVHeader builds the header for dataBytes of interleaved 16-bit samples.
func NewWAVHeader(sampleRate, channels int, dataBytes uint32) WAVHeader {
	return WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataBytes,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * 2),
		BlockAlign:    uint16(channels * 2),
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataBytes,
	}
}

func (h *WAVHeader) Write(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// EncodeWAV renders pcm as a canonical 16-bit little-endian interleaved WAV container.
func EncodeWAV(pcm *PCM) ([]byte, error) {
	channels := len(pcm.Channels)
	if channels == 0 || pcm.SampleRate <= 0 {
		return nil, apperrors.UnsupportedFormat("channel count or sample rate unknown")
	}
	frames := pcm.Frames()
	for i, ch := range pcm.Channels {
		if len(ch) != frames {
			return nil, apperrors.Decode(fmt.Sprintf("channel %d has %d samples, expected %d", i, len(ch), frames))
		}
	}

	dataBytes := frames * channels * 2
	if uint64(dataBytes) > math.MaxUint32-36 {
		return nil, apperrors.UnsupportedFormat("audio too long for a WAV container")
	}

	buf := bytes.NewBuffer(make([]byte, 0, WAVHeaderSize+dataBytes))
	header := NewWAVHeader(pcm.SampleRate, channels, uint32(dataBytes))
	if err := header.Write(buf); err != nil {
		return nil, fmt.Errorf("write wav header: %w", err)
	}

	sample := make([]byte, 2)
	for i := 0; i < frames; i++ {
		for _, ch := range pcm.Channels {
			binary.LittleEndian.PutUint16(sample, uint16(FloatToInt16(ch[i])))
			buf.Write(sample)
		}
	}
	return buf.Bytes(), nil
}

// FloatToInt16 clamps f to [-1, 1] and scales it asymmetrically onto the signed 16-bit range.
func FloatToInt16(f float32) int16 {
	v := float64(f)
	if math.IsNaN(v) {
		v = 0
	}
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		v *= 32768
	} else {
		v *= 32767
	}
	n := int64(v)
	if n < math.MinInt16 {
		n = math.MinInt16
	}
	if n > math.MaxInt16 {
		n = math.MaxInt16
	}
	return int16(n)
}

// DecodeWAV parses a RIFF/WAVE container into float PCM using go-audio/wav.
func DecodeWAV(data []byte) (*PCM, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, apperrors.Decode("invalid WAV container").WithCause(err)
	}
	if d.NumChans == 0 || d.SampleRate == 0 {
		return nil, apperrors.UnsupportedFormat("WAV header carries no channel count or sample rate")
	}
	if !isLinearPCM(d.WavAudioFormat, data) {
		return nil, errNeedsTranscode
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, apperrors.Decode("read WAV samples").WithCause(err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, apperrors.UnsupportedFormat("WAV stream carries no channel count or sample rate")
	}

	channels := buf.Format.NumChannels
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(d.BitDepth)
	}
	scale := float32(math.Pow(2, float64(bitDepth-1)))

	frames := len(buf.Data) / channels
	pcm := &PCM{SampleRate: buf.Format.SampleRate, Channels: make([][]float32, channels)}
	for c := range pcm.Channels {
		pcm.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames*channels; i++ {
		s := buf.Data[i]
		if bitDepth == 8 {
			// 8-bit WAV samples are unsigned.
			s -= 128
		}
		pcm.Channels[i%channels][i/channels] = float32(s) / scale
	}
	return pcm, nil
}

const (
	wavFormatPCM        = 0x0001
	wavFormatExtensible = 0xFFFE
)

// isLinearPCM accepts plain PCM and WAVE_FORMAT_EXTENSIBLE whose sub-format is PCM.
func isLinearPCM(format uint16, data []byte) bool {
	switch format {
	case wavFormatPCM:
		return true
	case wavFormatExtensible:
		sub, ok := extensibleSubFormat(data)
		return ok && sub == wavFormatPCM
	default:
		return false
	}
}

// extensibleSubFormat returns the format code from the SubFormat GUID of the fmt chunk.
// go-audio/wav discards the fmt extension, so the chunk is located here directly.
func extensibleSubFormat(data []byte) (uint16, bool) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, false
	}
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return 0, false
		}
		if id == "fmt " {
			// format(2) channels(2) rate(4) byteRate(4) align(2) bits(2) cbSize(2)
			// validBits(2) channelMask(4) subFormat(16)
			if size < 40 {
				return 0, false
			}
			guid := data[body+24 : body+40]
			if !bytes.Equal(guid[2:], ksDataFormatSuffix) {
				return 0, false
			}
			return binary.LittleEndian.Uint16(guid[0:2]), true
		}
		off = body + size + size%2
	}
	return 0, false
}

// ksDataFormatSuffix is the fixed tail of the KSDATAFORMAT_SUBTYPE_* GUIDs.
var ksDataFormatSuffix = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// DecodeInt16LE reads raw interleaved signed 16-bit little-endian samples.
func DecodeInt16LE(data []byte, sampleRate, channels int) (*PCM, error) {
	if channels <= 0 || sampleRate <= 0 {
		return nil, apperrors.UnsupportedFormat("raw PCM needs a sample rate and channel count")
	}
	frameSize := channels * 2
	frames := len(data) / frameSize
	pcm := &PCM{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := range pcm.Channels {
		pcm.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := i*frameSize + c*2
			s := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			pcm.Channels[c][i] = float32(s) / 32768
		}
	}
	return pcm, nil
}
