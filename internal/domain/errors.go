package domain

import "errors"

var (
	// ErrSetNotFound is returned when a set document does not exist.
	ErrSetNotFound = errors.New("set not found")
	// ErrCategoryNotFound is returned when a category document does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrMalformedDocument indicates a stored set or category could not be applied.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrNotOwner is returned when a user touches a set they do not own.
	ErrNotOwner = errors.New("set belongs to another user")
	// ErrSessionNotFound is returned when a builder session has not been started.
	ErrSessionNotFound = errors.New("builder session not found")
	// ErrUnauthenticated is returned when no user id can be resolved.
	ErrUnauthenticated = errors.New("user not authenticated")

	// ErrStageLocked is returned when jumping past the most advanced stage.
	ErrStageLocked = errors.New("stage not reached yet")
	// ErrRoundNotInScope is returned when editing round 2 of a single-round set.
	ErrRoundNotInScope = errors.New("round not in scope")
	// ErrInvalidCell indicates a category index or row outside the visible board.
	ErrInvalidCell = errors.New("invalid board cell")
	// ErrInvalidDailyDouble indicates a daily double on an empty cell or a shared category.
	ErrInvalidDailyDouble = errors.New("invalid daily double")
	// ErrNoDailyDoubleCandidates is returned when a round has too few filled cells to pick from.
	ErrNoDailyDoubleCandidates = errors.New("no filled clues to place a daily double on")
	// ErrInvalidSet indicates a set that violates its structural invariants.
	ErrInvalidSet = errors.New("invalid set")
	// ErrInvalidStatus indicates an unknown set status filter.
	ErrInvalidStatus = errors.New("invalid set status")
	// ErrUnknownIntent is returned for intents the builder does not understand.
	ErrUnknownIntent = errors.New("unknown intent")
)
