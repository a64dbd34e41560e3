package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig signals malformed or missing configuration. Fatal at startup.
	ErrConfig = errors.New("config error")
	// ErrEmbedding signals an embedding backend failure or malformed input text.
	ErrEmbedding = errors.New("embedding error")
	// ErrStoreAdmin signals a collection create/drop/index/load failure.
	ErrStoreAdmin = errors.New("store admin error")
	// ErrLoadVerify signals that an index was built but the collection never reached Loaded.
	ErrLoadVerify = fmt.Errorf("%w: load verification failed", ErrStoreAdmin)
	// ErrParse signals a malformed source file during ingestion.
	ErrParse = errors.New("parse error")
	// ErrQuery signals a store-side search failure.
	ErrQuery = errors.New("query error")
	// ErrExternalDelegate signals a failed call to the external search service.
	ErrExternalDelegate = errors.New("external delegate error")

	// ErrCollectionNotFound signals a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrTimeout signals an exhausted bounded wait.
	ErrTimeout = errors.New("timed out")
	// ErrInvalidRecord signals a record that violates the schema.
	ErrInvalidRecord = errors.New("invalid record")
)

// DelegateStatusError carries the HTTP status returned by the external search service.
type DelegateStatusError struct {
	StatusCode int
	Body       string
}

func (e *DelegateStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", ErrExternalDelegate.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrExternalDelegate.Error(), e.StatusCode, e.Body)
}

func (e *DelegateStatusError) Unwrap() error { return ErrExternalDelegate }
