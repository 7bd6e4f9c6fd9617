// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable, machine-readable classification the HTTP layer maps
// to a status without matching message strings.
type ErrorCode string

const (
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	CodeForeignAsset        ErrorCode = "FOREIGN_ASSET"
	CodeAssetUnavailable    ErrorCode = "ASSET_UNAVAILABLE"
	CodeDuplicateTrade      ErrorCode = "DUPLICATE_ACTIVE_TRADE"
	CodeSelfTrade           ErrorCode = "SELF_TRADE"
	CodeListingUnavailable  ErrorCode = "LISTING_UNAVAILABLE"
	CodeConflict            ErrorCode = "CONFLICT"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// CodeOf extracts the error code, or empty for unclassified errors.
func CodeOf(err error) ErrorCode {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func errNotFound(resource string) error {
	return &ServiceError{Code: CodeNotFound, Message: resource + " not found"}
}

func errUnauthorized(message string) error {
	return &ServiceError{Code: CodeUnauthorized, Message: message}
}

func errInvalidTransition(from, to string) error {
	return &ServiceError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition trade from %s to %s", from, to),
	}
}

func errForeignAsset(message string) error {
	return &ServiceError{Code: CodeForeignAsset, Message: message}
}

func errAssetUnavailable(message string) error {
	return &ServiceError{Code: CodeAssetUnavailable, Message: message}
}

func errDuplicateTrade() error {
	return &ServiceError{
		Code:    CodeDuplicateTrade,
		Message: "you already have an active trade on this listing",
	}
}

func errSelfTrade() error {
	return &ServiceError{Code: CodeSelfTrade, Message: "cannot open a trade on your own listing"}
}

func errListingUnavailable(message string) error {
	return &ServiceError{Code: CodeListingUnavailable, Message: message}
}

func errConflict(message string) error {
	return &ServiceError{Code: CodeConflict, Message: message}
}
