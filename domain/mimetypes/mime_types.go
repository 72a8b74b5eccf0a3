package mimetypes

import (
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown     MIME = "unknown"
	OctetStream MIME = "application/octet-stream"
	TextPlain   MIME = "text/plain"

	ApplicationPDF  MIME = "application/pdf"
	ApplicationJSON MIME = "application/json"

	ImagePNG MIME = "image/png"
)

// Detect sniffs the media type of a file from its first bytes.
// Parameters such as the charset are dropped, the result is what gets announced in METADATA.
func Detect(header []byte) string {
	mt, _, err := mime.ParseMediaType(mimetype.Detect(header).String())
	if err != nil {
		return string(OctetStream)
	}
	return mt
}

// Normalize returns the bare media type a peer declared, or Unknown when it cannot be parsed.
func Normalize(declared string) MIME {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}
