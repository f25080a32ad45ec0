package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session does not exist.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionExists is returned when a session id is already allocated.
	ErrSessionExists = errors.New("game session already exists")
	// ErrPlayerNotFound is returned when a player is not part of the session.
	ErrPlayerNotFound = errors.New("player not found in game")
	// ErrAlreadyJoined is returned when a connection joins the same session twice.
	ErrAlreadyJoined = errors.New("player already joined")
	// ErrNameTaken is returned when a connected player already uses the name.
	ErrNameTaken = errors.New("username already taken")
	// ErrInvalidName is returned for blank display names.
	ErrInvalidName = errors.New("invalid player name")
	// ErrInvalidTransition indicates the action is not legal in the current phase.
	ErrInvalidTransition = errors.New("invalid phase transition")
	// ErrAlreadyAnswered is returned when a player answers the same question twice.
	ErrAlreadyAnswered = errors.New("answer already submitted")
	// ErrInvalidAnswer indicates a submitted answer index is out of range.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrMalformedConfig indicates a game configuration failed validation.
	ErrMalformedConfig = errors.New("invalid game configuration")
	// ErrConfigNotFound indicates a stored game configuration could not be loaded.
	ErrConfigNotFound = errors.New("game configuration not found")
)
