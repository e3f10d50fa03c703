package core

import (
	"errors"
	"net/http"
)

var (
	ErrEmbedding              = errors.New("embedding failed")
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
	ErrReranker               = errors.New("reranker failed")
	ErrProfile                = errors.New("profile storage failed")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrLLMClient              = errors.New("llm request failed")
	ErrInvalidConfig          = errors.New("invalid configuration")
)

// Error is returned across the service boundary. Message is safe to show to
// clients, Err stays internal.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewInvalidRequest(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg, Err: ErrInvalidRequest}
}

// StatusFor maps an error to the HTTP status it should be reported with.
func StatusFor(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Code != 0 {
		return e.Code
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrEmbedding), errors.Is(err, ErrLLMClient):
		return http.StatusBadGateway
	case errors.Is(err, ErrVectorStoreUnavailable), errors.Is(err, ErrReranker):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text a client may see for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid request"
	case errors.Is(err, ErrEmbedding):
		return "embedding service unavailable"
	case errors.Is(err, ErrLLMClient):
		return "language model unavailable"
	case errors.Is(err, ErrVectorStoreUnavailable):
		return "vector store unavailable"
	case errors.Is(err, ErrReranker):
		return "reranker unavailable"
	default:
		return "internal server error"
	}
}
