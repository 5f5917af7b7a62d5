package victionary

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInitialized is returned by operations that need a loaded cache.
	ErrNotInitialized = errors.New("victionary not initialized")

	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("victionary already initialized")

	// ErrReadOnlyTx is returned when a write is attempted through a
	// read-only transaction handle.
	ErrReadOnlyTx = errors.New("tx not writable")

	// ErrNilDescriptor is returned by AcquireTypeContext when the supplied
	// descriptor dependency is missing.
	ErrNilDescriptor = errors.New("type context requires a descriptor")
)

// StoreError wraps a failure of the durable backend.
type StoreError struct {
	Op  string
	Err error
}

func storeErrf(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

// CollectionError wraps a failure scoped to one collection, optionally to
// one key.
type CollectionError struct {
	Collection string
	Key        string
	Msg        string
	Err        error
}

func collectionErrf(collection, key string, err error, format string, args ...any) error {
	return &CollectionError{collection, key, fmt.Sprintf(format, args...), err}
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

func (e *CollectionError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Collection)
	if e.Key != "" {
		buf.WriteByte('/')
		buf.WriteString(e.Key)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
