package audio

import (
	"bytes"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// Format is a detected input container.
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatRawPCM  Format = "pcm"
	FormatFLAC    Format = "flac"
	FormatOGG     Format = "ogg"
	FormatMP4     Format = "m4a"
	FormatWebM    Format = "webm"
	FormatUnknown Format = ""
)

// Detection is the outcome of Identify. Rate and Channels are only set for raw PCM
// declared through MIME parameters, e.g. "audio/L16; rate=16000; channels=1".
type Detection struct {
	Format   Format
	Rate     int
	Channels int
}

// Identify sniffs magic bytes first, then dhowden/tag, then falls back to the declared MIME type.
func Identify(data []byte, declaredMime string) Detection {
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		return Detection{Format: FormatWAV}
	}

	if d, ok := rawPCMFromMime(declaredMime); ok {
		return d
	}

	if len(data) >= 11 {
		if _, ft, err := tag.Identify(bytes.NewReader(data)); err == nil {
			if f := formatFromFileType(ft); f != FormatUnknown {
				return Detection{Format: f}
			}
		}
	}

	if len(data) >= 4 && bytes.Equal(data[0:4], []byte{0x1a, 0x45, 0xdf, 0xa3}) {
		return Detection{Format: FormatWebM}
	}
	// Bare MPEG audio frame sync without an ID3 tag.
	if len(data) >= 2 && data[0] == 0xff && data[1]&0xe0 == 0xe0 {
		return Detection{Format: FormatMP3}
	}

	return Detection{Format: formatFromMime(declaredMime)}
}

func formatFromFileType(ft tag.FileType) Format {
	switch ft {
	case tag.MP3:
		return FormatMP3
	case tag.FLAC:
		return FormatFLAC
	case tag.OGG:
		return FormatOGG
	case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
		return FormatMP4
	default:
		return FormatUnknown
	}
}

func formatFromMime(declared string) Format {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(declared))
	}
	switch mt {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return FormatWAV
	case "audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mpeg-3":
		return FormatMP3
	case "audio/flac", "audio/x-flac":
		return FormatFLAC
	case "audio/ogg", "audio/opus", "application/ogg":
		return FormatOGG
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac", "video/mp4":
		return FormatMP4
	case "audio/webm", "video/webm":
		return FormatWebM
	default:
		return FormatUnknown
	}
}

func rawPCMFromMime(declared string) (Detection, bool) {
	mt, params, err := mime.ParseMediaType(declared)
	if err != nil {
		return Detection{}, false
	}
	switch mt {
	case "audio/l16", "audio/pcm", "audio/x-raw":
	default:
		return Detection{}, false
	}
	d := Detection{Format: FormatRawPCM, Channels: 1}
	if v, err := strconv.Atoi(params["rate"]); err == nil {
		d.Rate = v
	}
	if v, ok := params["channels"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = 0
		}
		d.Channels = n
	}
	return d, true
}

// ContentTypeFromExtension returns the MIME type for common audio file extensions.
func ContentTypeFromExtension(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "flac":
		return "audio/flac"
	case "ogg", "opus":
		return "audio/ogg"
	case "m4a", "m4b", "m4p", "mp4", "aac":
		return "audio/mp4"
	case "webm":
		return "audio/webm"
	default:
		return mime.TypeByExtension("." + ext)
	}
}
