package domain

import "errors"

var (
	// ErrDomainNotFound is returned when a domain id is not in the catalog.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrUnknownCategory indicates a category outside the fixed enumeration.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownDifficulty indicates a difficulty tier outside the fixed enumeration.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	// ErrInvalidSet indicates a set number outside 1..MaxSets.
	ErrInvalidSet = errors.New("set number out of range")
	// ErrSetLocked is returned when progress tracking has not unlocked the requested set yet.
	ErrSetLocked = errors.New("set is locked")
	// ErrSessionNotFound is returned when a player session is not registered.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidStage is returned when an orchestrator action does not apply to the current stage.
	ErrInvalidStage = errors.New("action not available in current stage")
)
