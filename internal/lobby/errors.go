package lobby

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrWrongStatus     = errors.New("session status does not allow this")
	ErrNotCaptain      = errors.New("caller is not this team's captain")
	ErrNotCreator      = errors.New("caller did not create this session")
	ErrNameRequired    = errors.New("display name required")
	ErrSlotTaken       = errors.New("captain slot already taken")
	ErrSideTaken       = errors.New("side already taken by the other team")
	ErrNoSideChosen    = errors.New("team has not chosen a side")
	ErrStartConditions = errors.New("start conditions not met")
	ErrStaleAction     = errors.New("state changed underneath, re-fetch and retry")
	ErrInvalid         = errors.New("invalid input")
)
