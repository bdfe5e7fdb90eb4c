package catalog

import "errors"

var (
	ErrAuthRequired       = errors.New("sign in required")
	ErrInvalidFileType    = errors.New("invalid file type, only images are allowed")
	ErrFileTooLarge       = errors.New("file size too large, maximum is 5MB")
	ErrStorageWriteFailed = errors.New("failed to upload image to storage")
	ErrRecordInsertFailed = errors.New("failed to save image information")
	ErrNotFound           = errors.New("image not found")
	ErrForbidden          = errors.New("you can only delete your own images")
	ErrRecordDeleteFailed = errors.New("failed to delete image")
)
