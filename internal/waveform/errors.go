package waveform

import (
	"errors"
	"fmt"
)

// ErrClass is the load failure taxonomy surfaced through the error
// callback. Background compute failures never appear here; they degrade
// silently to the main-thread peaks.
type ErrClass int

const (
	ErrClassNone ErrClass = iota
	// ErrClassCapability: this environment has no decoder for the audio.
	ErrClassCapability
	// ErrClassNetwork: fetching the bytes failed.
	ErrClassNetwork
	// ErrClassDecode: bytes arrived but are not valid audio.
	ErrClassDecode
)

func (c ErrClass) String() string {
	switch c {
	case ErrClassCapability:
		return "capability-missing"
	case ErrClassNetwork:
		return "network-failure"
	case ErrClassDecode:
		return "decode-failure"
	default:
		return "none"
	}
}

// Message returns the human readable text for a failure of this class.
func (c ErrClass) Message(err error) string {
	switch c {
	case ErrClassCapability:
		return "Audio format is not supported on this system"
	case ErrClassNetwork:
		return fmt.Sprintf("Could not fetch audio: %v", err)
	case ErrClassDecode:
		return fmt.Sprintf("Could not decode audio: %v", err)
	default:
		return ""
	}
}

type classifiedError struct {
	class ErrClass
	err   error
}

func (e *classifiedError) Error() string { return e.err.Error() }
func (e *classifiedError) Unwrap() error { return e.err }

func classify(class ErrClass, err error) error {
	return &classifiedError{class: class, err: err}
}

// Classify extracts the error class, defaulting to decode failure for
// unclassified errors from the decode path.
func Classify(err error, fallback ErrClass) ErrClass {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.class
	}
	return fallback
}
