package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain path", "/tmp/media/clip.mp4", "/tmp/media/clip.mp4"},
		{"empty", "", "''"},
		{"spaces", "/tmp/My Clip.mp4", "'/tmp/My Clip.mp4'"},
		{"single quote", "/tmp/it's.mp4", `'/tmp/it'"'"'s.mp4'`},
		{"dollar", "/tmp/$HOME.mp4", "'/tmp/$HOME.mp4'"},
		{"percent sequence", "%f", "'%f'"},
		{"query string", "https://example.com/v.mp4?a=1&b=2", "'https://example.com/v.mp4?a=1&b=2'"},
		{"newline", "a\nb", "'a\nb'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	tests := []struct {
		name     string
		binary   string
		args     []string
		expected string
	}{
		{
			name:     "no arguments",
			binary:   "mpv",
			expected: "mpv",
		},
		{
			name:     "player with file path",
			binary:   "mpv",
			args:     []string{"--fs", "/tmp/My Clip.mp4"},
			expected: "mpv --fs '/tmp/My Clip.mp4'",
		},
		{
			name:     "binary with space",
			binary:   "/opt/my apps/ffmpeg",
			args:     []string{"-i", "in.flv", "out.mp4"},
			expected: "'/opt/my apps/ffmpeg' -i in.flv out.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscapeCommand(tt.binary, tt.args...))
		})
	}
}

func TestIsShellSpecialChar(t *testing.T) {
	for _, c := range " \t'\"$`\\!*?[](){}|;<>&~#%\n\r" {
		assert.True(t, isShellSpecialChar(c), "expected %q to be special", c)
	}
	for _, c := range "abcABC123_-./:@=+" {
		assert.False(t, isShellSpecialChar(c), "expected %q not to be special", c)
	}
}
