package dto

import (
	"errors"
	"mime/multipart"
)

// ExtractRequest represents the incoming extraction request
type ExtractRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

// Validate performs basic validation on the request
func (r *ExtractRequest) Validate() error {
	if r.File == nil {
		return errors.New("file is required")
	}
	if r.File.Size == 0 {
		return ErrNoContent
	}
	return nil
}
