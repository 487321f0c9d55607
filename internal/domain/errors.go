package domain

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrSessionFull          = errors.New("session already has two participants")
	ErrUnknownParticipant   = errors.New("participant not found in session")

	ErrConstitutionNotFound = errors.New("constitution not found")
)
