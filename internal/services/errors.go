package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so transport layers can map them to
// the right status code without string matching.
type ErrorKind string

const (
	// KindMalformedInput covers unusable caller input: unknown document
	// types, unreadable files, missing policy fields.
	KindMalformedInput ErrorKind = "MALFORMED_INPUT"
	// KindCollaboratorFailure covers extraction, storage and messaging
	// dependencies failing mid-pipeline.
	KindCollaboratorFailure ErrorKind = "COLLABORATOR_FAILURE"
	// KindNotFound covers lookups for claims or policies that do not exist.
	KindNotFound ErrorKind = "NOT_FOUND"
)

// PipelineError wraps an underlying error with its classification.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func malformedInput(format string, args ...any) error {
	return &PipelineError{Kind: KindMalformedInput, Message: fmt.Sprintf(format, args...)}
}

func collaboratorFailure(err error, format string, args ...any) error {
	return &PipelineError{Kind: KindCollaboratorFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

func notFound(format string, args ...any) error {
	return &PipelineError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from an error chain, defaulting to
// collaborator failure for unclassified errors.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindCollaboratorFailure
}
