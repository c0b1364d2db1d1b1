package service

import "errors"

// --- Error Definitions ---
var (
	ErrIdentityNotFound = errors.New("identification not recognized")
	ErrStudentNotFound  = errors.New("student not found")
	ErrEmailTaken       = errors.New("student with this email already exists")
	ErrStudentExists    = errors.New("student with this id already exists")
	ErrInvalidStudent   = errors.New("invalid student data")
	ErrInvalidToken     = errors.New("invalid session token")
	ErrTokenGeneration  = errors.New("failed to generate session token")
)
