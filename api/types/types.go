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

// Package types defines the question flow DSL, the closed enumerations used by
// the engine, the engine configuration and the error taxonomy.
package types

// EndSentinel is the reserved navigation target meaning "terminate the
// questionnaire now", even if unanswered but otherwise visible questions remain.
const EndSentinel = "END"

// Configuration is a loosely typed key/value configuration block, decoded into
// typed component configurations with utils/maps.Map2Struct.
type Configuration map[string]interface{}

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	SingleChoice QuestionType = "singleChoice"
	MultiChoice  QuestionType = "multiChoice"
	ShortText    QuestionType = "shortText"
	LongText     QuestionType = "longText"
	Number       QuestionType = "number"
	YesNo        QuestionType = "yesNo"
	FileUpload   QuestionType = "fileUpload"
)

// IsChoice reports whether answers of this type are option values.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultiChoice
}

// IsText reports whether answers of this type are free text.
func (t QuestionType) IsText() bool {
	return t == ShortText || t == LongText
}

// TriggerCondition enumerates the predicates a conditional rule can apply to a
// prior answer.
type TriggerCondition string

const (
	Equals      TriggerCondition = "equals"
	NotEquals   TriggerCondition = "notEquals"
	Contains    TriggerCondition = "contains"
	NotContains TriggerCondition = "notContains"
	GreaterThan TriggerCondition = "greaterThan"
	LessThan    TriggerCondition = "lessThan"
	IsEmpty     TriggerCondition = "isEmpty"
	IsNotEmpty  TriggerCondition = "isNotEmpty"
	// Expression evaluates rule.Expression with the expr engine.
	Expression TriggerCondition = "expression"
	// Script evaluates rule.Script as a JavaScript function body.
	Script TriggerCondition = "script"
)

// LogicOperator combines the results of multiple conditional rules.
// It has no effect when a question carries fewer than two rules.
type LogicOperator string

const (
	And LogicOperator = "AND"
	Or  LogicOperator = "OR"
)

// SessionState is the lifecycle state of a flow session.
type SessionState string

const (
	StateNotStarted SessionState = "NotStarted"
	StateInProgress SessionState = "InProgress"
	StateCompleted  SessionState = "Completed"
	// StateAborted is entered when navigation detects a cycle. Callers should
	// treat an aborted session as completed with the answers gathered so far.
	StateAborted SessionState = "Aborted"
)

// Finished reports whether the session can no longer accept answers.
func (s SessionState) Finished() bool {
	return s == StateCompleted || s == StateAborted
}

// AnswerRecord is one collected answer. The ordered record list of a completed
// session is the sole artifact consumed downstream for job submission and
// admin review rendering.
type AnswerRecord struct {
	// QuestionID identifies the answered question within its trade category.
	QuestionID string `json:"questionId"`
	// QuestionText snapshots the question text at answer time.
	QuestionText string `json:"questionText"`
	// Value is the raw answer: string, float64, bool, []string or a file reference.
	Value interface{} `json:"value"`
	// Order is the index at which the answer was captured.
	Order int `json:"order"`
}

// Parser decodes and encodes questionnaire definitions.
type Parser interface {
	DecodeQuestionnaire(def []byte) (Questionnaire, error)
	EncodeQuestionnaire(def interface{}) ([]byte, error)
}

// Metadata holds global string properties exposed to script rules.
type Metadata struct {
	data map[string]string
}

// NewMetadata creates an empty Metadata.
func NewMetadata() Metadata {
	return Metadata{data: make(map[string]string)}
}

// BuildMetadata creates a Metadata from the given map.
func BuildMetadata(data map[string]string) Metadata {
	m := Metadata{data: make(map[string]string, len(data))}
	for k, v := range data {
		m.data[k] = v
	}
	return m
}

// PutValue sets a property. Empty keys are ignored.
func (md *Metadata) PutValue(key, value string) {
	if key == "" {
		return
	}
	if md.data == nil {
		md.data = make(map[string]string)
	}
	md.data[key] = value
}

// GetValue returns the property value for key, or "".
func (md *Metadata) GetValue(key string) string {
	return md.data[key]
}

// Values returns the underlying map.
func (md *Metadata) Values() map[string]string {
	return md.data
}
