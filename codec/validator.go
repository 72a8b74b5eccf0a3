package codec

import (
	"fmt"
	"tempest-share/errors"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type metadataPayload struct {
	FileName string `msgpack:"fileName" validate:"required,max=255"`
	FileSize *int64 `msgpack:"fileSize" validate:"required,gte=0"`
	FileType string `msgpack:"fileType" validate:"max=255"`
}

func validateMetadata(p metadataPayload) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid METADATA payload: %v: %w", err, errors.ErrMalformedMessage)
	}
	if !utf8.ValidString(p.FileName) {
		return fmt.Errorf("METADATA file name is not valid UTF-8: %w", errors.ErrMalformedMessage)
	}
	return nil
}
