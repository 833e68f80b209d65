package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrReviewNotFound   = errors.New("review not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrHistoryNotFound  = errors.New("history entry not found")
	ErrStatusNotFound   = errors.New("no import status for identifier")
	ErrInvalidStatus    = errors.New("invalid review status")
	ErrInvalidSource    = errors.New("unknown source")
	ErrMissingOwner     = errors.New("owner id is required")
	ErrNotRestorable    = errors.New("history entry cannot be restored")
	ErrAsyncUnavailable = errors.New("async ingestion is not configured")
)
