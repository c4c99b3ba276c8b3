package models

import "errors"

var (
	// ErrNotAuthenticated no active profile; mutating operations fail fast
	ErrNotAuthenticated = errors.New("not authenticated: no active profile")
	// ErrNotFound record or medication absent when expected
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists id collision on create; the stored copy wins
	ErrAlreadyExists = errors.New("already exists")
	// ErrActivationInFlight profile switch requested while an activation is running
	ErrActivationInFlight = errors.New("profile activation already in progress")
	// ErrInvalidTimeSlot slot is not morning, afternoon or evening
	ErrInvalidTimeSlot = errors.New("invalid time slot")
)

// OfflineMessage user-facing text set as the coordinator's last error when a subscription fails
const OfflineMessage = "Working offline - showing cached data"
