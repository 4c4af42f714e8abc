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

package engine

import (
	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/utils/cast"
)

// FlowSession drives one job-posting questionnaire attempt: it asks the
// visibility resolver which question is eligible, records answers, resolves
// branching, supports backtracking with invalidation and detects cycles.
//
// A session is owned by exactly one caller at a time and is fully
// synchronous; it deliberately carries no lock. A racing submission that
// targets a question which is no longer current is rejected as stale.
// Sessions are never persisted; abandonment is discarding the value.
type FlowSession struct {
	id  string
	ctx *QuestionnaireCtx
	// config is captured at creation together with ctx; reloading the
	// questionnaire never mutates a running session.
	config  types.Config
	state   types.SessionState
	current string
	history []types.AnswerRecord
}

// StepResult is the outcome of a session operation.
type StepResult struct {
	// State is the session state after the operation.
	State types.SessionState `json:"state"`
	// Question is the question to ask next; set while InProgress.
	Question *types.Question `json:"question,omitempty"`
	// Answers is the ordered answer list; set when the session finished.
	// For an aborted session it holds everything gathered before the abort.
	Answers []types.AnswerRecord `json:"answers,omitempty"`
}

func newFlowSession(id string, ctx *QuestionnaireCtx, config types.Config) *FlowSession {
	return &FlowSession{
		id:     id,
		ctx:    ctx,
		config: config,
		state:  types.StateNotStarted,
	}
}

// ID returns the session identifier.
func (s *FlowSession) ID() string {
	return s.id
}

// Category returns the trade category of the session.
func (s *FlowSession) Category() string {
	return s.ctx.CategoryID
}

// State returns the session state.
func (s *FlowSession) State() types.SessionState {
	return s.state
}

// CurrentQuestion returns the question waiting for an answer, or nil.
func (s *FlowSession) CurrentQuestion() *types.Question {
	if s.state != types.StateInProgress {
		return nil
	}
	if qCtx, ok := s.ctx.QuestionByID(s.current); ok {
		return qCtx.Def
	}
	return nil
}

// Answers returns a copy of the collected answer records in capture order.
func (s *FlowSession) Answers() []types.AnswerRecord {
	records := make([]types.AnswerRecord, len(s.history))
	copy(records, s.history)
	return records
}

// Start picks the first eligible question given an empty answer map. A
// questionnaire with no eligible question completes immediately with an
// empty answer list. Starting an already started session reports the
// current step without side effects.
func (s *FlowSession) Start() *StepResult {
	if s.state != types.StateNotStarted {
		return s.snapshot()
	}
	first, ok := s.ctx.FirstQuestion(map[string]interface{}{})
	if !ok {
		return s.finish(types.StateCompleted, nil)
	}
	s.state = types.StateInProgress
	s.current = first.Def.ID
	return s.snapshot()
}

// Answer records value for questionID and advances the flow. Submissions for
// the current question record or replace; submissions for a question already
// in history re-answer it and replay the flow forward, dropping downstream
// answers the new path no longer reaches or that fail visibility. Any other
// target is a stale submission and is rejected with no state change.
func (s *FlowSession) Answer(questionID string, value interface{}) (*StepResult, error) {
	switch s.state {
	case types.StateNotStarted:
		return nil, types.ErrNotStarted
	case types.StateCompleted, types.StateAborted:
		return nil, types.ErrSessionFinished
	}

	qCtx, ok := s.ctx.QuestionByID(questionID)
	if !ok {
		return nil, types.NewValidationError(questionID, "unknown question")
	}
	historyIndex := s.indexOf(questionID)
	if questionID != s.current && historyIndex < 0 {
		return nil, types.NewValidationError(questionID, "stale submission: question is not current")
	}
	if err := s.validate(qCtx, value); err != nil {
		return nil, err
	}

	record := types.AnswerRecord{
		QuestionID:   questionID,
		QuestionText: qCtx.Def.Text,
		Value:        value,
	}
	var prefix, pending []types.AnswerRecord
	if historyIndex >= 0 {
		// re-answer: keep the records before it, set the rest aside for replay
		prefix = s.history[:historyIndex]
		pending = s.history[historyIndex+1:]
	} else {
		prefix = s.history
	}
	return s.advance(qCtx, record, prefix, pending), nil
}

// Back pops the most recent answer and makes its question current again; the
// discarded value must be re-answered. With an empty history the session
// returns to NotStarted. Back is legal from Completed (it reopens the
// session) but not from Aborted.
func (s *FlowSession) Back() (*StepResult, error) {
	switch s.state {
	case types.StateNotStarted:
		return nil, types.ErrNotStarted
	case types.StateAborted:
		return nil, types.ErrSessionFinished
	}
	if len(s.history) == 0 {
		s.state = types.StateNotStarted
		s.current = ""
		return s.snapshot(), nil
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.current = last.QuestionID
	s.state = types.StateInProgress
	return s.snapshot(), nil
}

// advance runs one forward pass from the just-answered question: it resolves
// branching, re-consumes surviving downstream answers on replay, skips
// questions that fail visibility (dropping their stale answers) and guards
// against cycles with a per-pass visited set.
func (s *FlowSession) advance(from *QuestionCtx, record types.AnswerRecord, prefix, pending []types.AnswerRecord) *StepResult {
	history := make([]types.AnswerRecord, 0, len(prefix)+len(pending)+1)
	answers := make(map[string]interface{}, len(prefix)+1)
	visited := make(map[string]bool, len(prefix)+1)
	for _, r := range prefix {
		r.Order = len(history)
		history = append(history, r)
		answers[r.QuestionID] = r.Value
		visited[r.QuestionID] = true
	}
	record.Order = len(history)
	history = append(history, record)
	answers[record.QuestionID] = record.Value
	visited[record.QuestionID] = true

	pendingByID := make(map[string]types.AnswerRecord, len(pending))
	for _, r := range pending {
		pendingByID[r.QuestionID] = r
	}

	cur := from
	curValue := record.Value
	answered := true
	for {
		var next string
		if answered {
			next = s.ctx.NextAfter(cur, curValue, answers)
		} else {
			// a skipped question has no answer to branch on
			next = s.ctx.nextByOrder(cur.Def.ID, answers)
		}
		if next == types.EndSentinel {
			return s.finish(types.StateCompleted, history)
		}
		if visited[next] {
			if s.config.Logger != nil {
				s.config.Logger.Printf("questflow: %s: category=%s question=%s",
					types.ErrCycleDetected.Error(), s.ctx.CategoryID, next)
			}
			return s.finish(types.StateAborted, history)
		}
		visited[next] = true

		nextCtx, ok := s.ctx.QuestionByID(next)
		if !ok {
			// cannot happen: NextAfter only returns arena members
			return s.finish(types.StateAborted, history)
		}
		if !s.ctx.ShouldAsk(nextCtx, answers) {
			// stale downstream answer of a now-hidden question is dropped
			delete(pendingByID, next)
			cur = nextCtx
			answered = false
			continue
		}
		if rec, ok := pendingByID[next]; ok {
			// surviving downstream answer: re-consume and branch again
			delete(pendingByID, next)
			rec.Order = len(history)
			history = append(history, rec)
			answers[next] = rec.Value
			cur = nextCtx
			curValue = rec.Value
			answered = true
			continue
		}
		// unanswered visible question becomes current; whatever is left in
		// the pending pool was not reached by the new path and is dropped
		s.history = history
		s.current = next
		s.state = types.StateInProgress
		return s.snapshot()
	}
}

// validate applies the submission checks that cause no state change.
func (s *FlowSession) validate(qCtx *QuestionCtx, value interface{}) error {
	def := qCtx.Def
	if cast.IsEmpty(value) {
		if def.IsRequired {
			return types.NewValidationError(def.ID, "answer is required")
		}
		return nil
	}
	switch def.Type {
	case types.Number:
		num, err := cast.ToFloat64E(value)
		if err != nil {
			return types.NewValidationError(def.ID, "answer is not a number")
		}
		if def.Min != nil && num < *def.Min {
			return types.NewValidationError(def.ID, "answer is below the minimum of %v", *def.Min)
		}
		if def.Max != nil && num > *def.Max {
			return types.NewValidationError(def.ID, "answer is above the maximum of %v", *def.Max)
		}
	case types.SingleChoice:
		v := cast.ToString(value)
		if _, ok := qCtx.optionValues[v]; !ok {
			return types.NewValidationError(def.ID, "unknown option %q", v)
		}
	case types.MultiChoice:
		for _, v := range cast.ToStringSlice(value) {
			if _, ok := qCtx.optionValues[v]; !ok {
				return types.NewValidationError(def.ID, "unknown option %q", v)
			}
		}
	}
	return nil
}

func (s *FlowSession) indexOf(questionID string) int {
	for i, r := range s.history {
		if r.QuestionID == questionID {
			return i
		}
	}
	return -1
}

func (s *FlowSession) finish(state types.SessionState, history []types.AnswerRecord) *StepResult {
	if history == nil {
		history = []types.AnswerRecord{}
	}
	s.history = history
	s.current = ""
	s.state = state
	if s.config.OnSessionEnd != nil {
		s.config.OnSessionEnd(s.id, state, s.Answers())
	}
	return s.snapshot()
}

func (s *FlowSession) snapshot() *StepResult {
	result := &StepResult{State: s.state}
	switch s.state {
	case types.StateInProgress:
		result.Question = s.CurrentQuestion()
	case types.StateCompleted, types.StateAborted:
		result.Answers = s.Answers()
	}
	return result
}
