package handler

import (
	"io"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
)

// readUpload returns the form file's bytes.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// tooLarge reports whether fh exceeds the caller's upload limit.
func tooLarge(fh *multipart.FileHeader, limit int64) bool {
	return limit > 0 && fh.Size > limit
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}

