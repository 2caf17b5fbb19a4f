package scheduler

import "errors"

var (
	// ErrScheduleNotFound is returned when no schedule exists for a page id
	ErrScheduleNotFound = errors.New("no schedule for page")
	// ErrRunInProgress is returned when a run for the page is already in flight
	ErrRunInProgress = errors.New("run already in progress")
	// ErrInvalidFrequency is returned for an unknown frequency name
	ErrInvalidFrequency = errors.New("invalid frequency")
)
