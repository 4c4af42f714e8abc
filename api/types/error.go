/*
 * Copyright 2025 The QuestFlow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrCycleDetected is raised when navigation would revisit a question
	// within one forward pass. It is fatal to the session.
	ErrCycleDetected = errors.New("cycle detected in question flow")
	// ErrSessionFinished is returned for operations on a completed or
	// aborted session.
	ErrSessionFinished = errors.New("session already finished")
	// ErrNotStarted is returned for operations that need a started session.
	ErrNotStarted = errors.New("session not started")
)

// ConfigError reports an authoring mistake: a dangling reference or a trigger
// field that does not fit the parent question's type. It is never fatal to a
// running session; the affected rule fails closed and the error is surfaced
// through Config.OnConfigWarning for correction.
type ConfigError struct {
	CategoryID string
	QuestionID string
	RuleID     string
	Reason     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: category=%s question=%s rule=%s: %s",
		e.CategoryID, e.QuestionID, e.RuleID, e.Reason)
}

// ValidationError rejects an answer submission: required field empty, number
// out of range, or a stale submission targeting a non-current question.
// It causes no session state change.
type ValidationError struct {
	QuestionID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: question=%s: %s", e.QuestionID, e.Reason)
}

// NewValidationError creates a ValidationError for the given question.
func NewValidationError(questionID, format string, v ...interface{}) *ValidationError {
	return &ValidationError{QuestionID: questionID, Reason: fmt.Sprintf(format, v...)}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
