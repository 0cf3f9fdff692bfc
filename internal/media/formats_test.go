package media

import "testing"

func TestIsSupportedMedia(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"track.mp3", true},
		{"track.FLAC", true},
		{"Track.M4A", true},
		{"movie.mkv", true},
		{"clip.webm", true},
		{"chapter.m4s", true},
		{"notes.txt", false},
		{"cover.jpg", false},
		{"noextension", false},
		{"archive.tar.gz", false},
	}

	for _, test := range tests {
		result := IsSupportedMedia(test.name)
		if result != test.expected {
			t.Errorf("IsSupportedMedia(%q) = %v, expected %v", test.name, result, test.expected)
		}
	}
}

func TestResolveMime(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
	}{
		{".mp3", "audio/mpeg"},
		{".MP3", "audio/mpeg"},
		{".flac", "audio/flac"},
		// MP4-family audio is declared under the container type.
		{".m4a", "audio/mp4"},
		{".alac", "audio/mp4"},
		{".m4s", "audio/mp4"},
		// Raw bitstream keeps the elementary-stream type.
		{".aac", "audio/aac"},
		{".mkv", "video/x-matroska"},
		{".xyz", ""},
		{"", ""},
	}

	for _, test := range tests {
		result := ResolveMime(test.ext)
		if result != test.expected {
			t.Errorf("ResolveMime(%q) = %q, expected %q", test.ext, result, test.expected)
		}
	}
}
