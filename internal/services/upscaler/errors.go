package upscaler

import (
	"errors"
	"fmt"
)

// Kind classifies why an upscale request failed. Every kind is terminal for
// the request.
type Kind int

const (
	KindTooManyFiles Kind = iota + 1
	KindPayloadTooLarge
	KindUnsupportedContentType
	KindUnsupportedFormat
	KindProcessingFailure
	KindProcessingTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTooManyFiles:
		return "too_many_files"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindUnsupportedContentType:
		return "unsupported_content_type"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindProcessingFailure:
		return "processing_failure"
	case KindProcessingTimeout:
		return "processing_timeout"
	default:
		return "unknown"
	}
}

// ClientError reports whether the failure was caused by the request input.
func (k Kind) ClientError() bool {
	switch k {
	case KindTooManyFiles, KindPayloadTooLarge, KindUnsupportedContentType, KindUnsupportedFormat:
		return true
	default:
		return false
	}
}

// Error carries a message that is safe to return to the caller. Err holds
// the internal cause and must only be logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	msgTooManyFiles           = "Please upload a single file."
	msgUnsupportedContentType = "Unsupported file type."
	msgUnsupportedFormat      = "Unsupported image format."
	msgProcessingFailure      = "Error upscaling image."
	msgProcessingTimeout      = "Image processing timed out."
)

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func payloadTooLarge(size, maxSize int64) *Error {
	return newError(KindPayloadTooLarge,
		fmt.Sprintf("File too large (max %s).", formatSize(maxSize)),
		fmt.Errorf("file size %d exceeds maximum allowed size %d", size, maxSize))
}

func formatSize(size int64) string {
	const mb = 1 << 20
	if size >= mb && size%mb == 0 {
		return fmt.Sprintf("%dMB", size/mb)
	}
	return fmt.Sprintf("%d bytes", size)
}

// KindOf returns the kind of err, or KindProcessingFailure for errors that
// did not come from the upscaler.
func KindOf(err error) Kind {
	var upscaleErr *Error
	if errors.As(err, &upscaleErr) {
		return upscaleErr.Kind
	}
	return KindProcessingFailure
}

// PublicMessage returns the text that may be shown to the caller for err.
func PublicMessage(err error) string {
	var upscaleErr *Error
	if errors.As(err, &upscaleErr) {
		return upscaleErr.Message
	}
	return msgProcessingFailure
}

// NewPayloadTooLarge is used by transports that reject an oversized body
// before the file parts reach the service.
func NewPayloadTooLarge(maxSize int64, cause error) *Error {
	return newError(KindPayloadTooLarge,
		fmt.Sprintf("File too large (max %s).", formatSize(maxSize)),
		cause)
}

// NewTooManyFiles is used by transports that reject a request without a
// usable file part.
func NewTooManyFiles(cause error) *Error {
	return newError(KindTooManyFiles, msgTooManyFiles, cause)
}
