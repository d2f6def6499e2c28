package aggregate

import "fmt"

// ValidationError reports a malformed detection rejected at ingestion.
// Malformed means a confidence outside [0, 1] or a box without strictly
// positive extent. Bad input is rejected rather than clamped so upstream
// producer bugs stay visible.
type ValidationError struct {
	Index  int // position within the offending detection list
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid detection at index %d: %s", e.Index, e.Reason)
}

// SequenceError reports a page index that breaks the strictly increasing
// page order of a run. It indicates a driver bug and is fatal to the run.
type SequenceError struct {
	Got  int
	Want int
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("page index %d out of sequence, expected %d", e.Got, e.Want)
}
