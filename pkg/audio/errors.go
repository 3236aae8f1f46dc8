package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means a default client was needed but no credential could be resolved.
	ErrConfiguration = errors.New("no credential provided, pass one in Config or set " + CredentialEnvVar)
	ErrFileNotFound  = errors.New("audio file not found")
	// ErrCapabilityUnavailable is returned when a requested stage has nothing to run it.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)

// LoadError wraps any failure to read or decode the input file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load audio %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// TranscriptionError wraps a failure of the transcription capability.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
