package media

import "strings"

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
	".wma":  true,
	".opus": true,
	".ape":  true,
	".alac": true,
	".m4s":  true,
}

// Video containers are consumed for their audio track only.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mov":  true,
	".ts":   true,
	".3gp":  true,
}

// IsSupportedMedia reports whether the filename carries a playable
// extension. Matching is case-insensitive on the extension only.
func IsSupportedMedia(name string) bool {
	ext := strings.ToLower(extOf(name))
	return audioExtensions[ext] || videoExtensions[ext]
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// ResolveMime maps an extension to the media type declared to the
// engine, or "" when the engine's own sniffing should decide.
//
// MP4-family elementary audio inside an MP4 container (m4a, alac) and
// the segmented variant (m4s) are declared under the container type so
// the MP4 demuxer is selected; a bare elementary-stream type (aac) is
// only correct for raw bitstream files.
func ResolveMime(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a", ".alac":
		return "audio/mp4"
	case ".m4s":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".aac":
		return "audio/aac"
	case ".wma":
		return "audio/x-ms-wma"
	case ".opus":
		return "audio/opus"
	case ".ape":
		return "audio/x-ape"
	case ".mp4":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".ts":
		return "video/mp2t"
	case ".3gp":
		return "video/3gpp"
	default:
		return ""
	}
}
