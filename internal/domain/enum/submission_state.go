package enum

import (
	"encoding/json"
	"fmt"
)

// SubmissionState is the state of a billing session's bill submission
type SubmissionState int

const (
	SubmissionIdle SubmissionState = iota
	SubmissionValidating
	SubmissionSubmitting
	SubmissionSucceeded
	SubmissionFailed
)

var submissionStateNames = [...]string{"Idle", "Validating", "Submitting", "Succeeded", "Failed"}

func (s SubmissionState) String() string {
	if int(s) < 0 || int(s) >= len(submissionStateNames) {
		return fmt.Sprintf("SubmissionState(%d)", int(s))
	}
	return submissionStateNames[s]
}

func (s SubmissionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SubmissionState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = SubmissionState(i)
		return nil
	}
	for i, name := range submissionStateNames {
		if name == str {
			*s = SubmissionState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown submission state %q", str)
}

// CanTransition reports whether moving from s to next is allowed.
//
//	Idle -> Validating
//	Validating -> Submitting | Idle (validation failed)
//	Submitting -> Succeeded | Failed
//	Succeeded | Failed -> Validating (next attempt) | Idle (reset)
func (s SubmissionState) CanTransition(next SubmissionState) bool {
	switch s {
	case SubmissionIdle:
		return next == SubmissionValidating
	case SubmissionValidating:
		return next == SubmissionSubmitting || next == SubmissionIdle
	case SubmissionSubmitting:
		return next == SubmissionSucceeded || next == SubmissionFailed
	case SubmissionSucceeded, SubmissionFailed:
		return next == SubmissionValidating || next == SubmissionIdle
	}
	return false
}

// InFlight reports whether a create-bill request is outstanding
func (s SubmissionState) InFlight() bool {
	return s == SubmissionSubmitting
}
