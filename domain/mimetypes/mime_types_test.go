package mimetypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		description string
		declared    string
		expected    MIME
	}{
		{"Charset is dropped", "text/plain; charset=utf-8", TextPlain},
		{"Case is folded", "Application/JSON", ApplicationJSON},
		{"Bare type is kept", "application/pdf", ApplicationPDF},
		{"Nothing declared", "", Unknown},
		{"Not a media type", "not a mime", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require.Equal(t, tt.expected, Normalize(tt.declared))
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		description string
		header      []byte
		expected    MIME
	}{
		{"Plain text drops the charset", []byte("hello world\n"), TextPlain},
		{"PNG magic bytes", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ImagePNG},
		{"PDF magic bytes", []byte("%PDF-1.7\n"), ApplicationPDF},
		{"JSON document", []byte(`{"fileName":"a.txt"}`), ApplicationJSON},
		{"Opaque binary", []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x00}, OctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := Detect(tt.header); got != string(tt.expected) {
				t.Errorf("Detect(%q) = %q; want %q", tt.header, got, tt.expected)
			}
		})
	}
}
