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

// Questionnaire is the root of the question flow definition DSL: the ordered
// question list of one trade category. Definitions are authored and validated
// externally and are immutable inputs for the lifetime of a session.
type Questionnaire struct {
	// Category is the trade category base information.
	Category Category `json:"category"`
	// Metadata holds the questions of the category.
	Metadata QuestionnaireMetadata `json:"metadata"`
}

// Category is the trade category (e.g. "plumbing") that selects which
// question set applies.
type Category struct {
	// ID is the category identifier.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// AdditionalInfo is extension field data, not interpreted by the engine.
	AdditionalInfo map[string]string `json:"additionalInfo,omitempty"`
}

// QuestionnaireMetadata holds the question definitions of a category.
type QuestionnaireMetadata struct {
	Questions []*Question `json:"questions"`
}

// Question is one job-posting question. A Question references other questions
// of the same category by identifier only; it never owns them.
type Question struct {
	// ID is unique within the trade category.
	ID string `json:"id"`
	// Text is the question text shown to the user.
	Text string `json:"text"`
	// Type is the question kind.
	Type QuestionType `json:"type"`
	// Options are the selectable options for choice questions.
	Options []QuestionOption `json:"options,omitempty"`
	// IsRequired rejects empty answers when true.
	IsRequired bool `json:"isRequired"`
	// IsActive excludes the question from every flow when false.
	// Absent means active.
	IsActive *bool `json:"isActive,omitempty"`
	// DisplayOrder positions the question in the category list.
	DisplayOrder int `json:"displayOrder"`
	// Min is the inclusive lower bound, meaningful only for number questions.
	Min *float64 `json:"min,omitempty"`
	// Max is the inclusive upper bound, meaningful only for number questions.
	Max *float64 `json:"max,omitempty"`
	// ConditionalLogic decides whether the question should be asked at all.
	ConditionalLogic ConditionalLogic `json:"conditionalLogic"`
	// NavigationLogic decides which question follows after an answer.
	NavigationLogic NavigationLogic `json:"navigationLogic"`
}

// Active reports whether the question takes part in flows.
func (q *Question) Active() bool {
	return q.IsActive == nil || *q.IsActive
}

// QuestionOption is one selectable answer of a choice question.
// Values are unique within a question.
type QuestionOption struct {
	// Value is the stable slug recorded as the answer.
	Value string `json:"value"`
	// Text is the display text.
	Text string `json:"text"`
	// Order positions the option.
	Order int `json:"order"`
}

// ConditionalLogic combines a question's rules into one include/exclude
// decision. Disabled logic makes the question unconditionally eligible;
// enabled logic with zero rules hides the question.
type ConditionalLogic struct {
	Enabled bool `json:"enabled"`
	// LogicOperator is AND or OR; meaningful only with more than one rule.
	LogicOperator LogicOperator `json:"logicOperator,omitempty"`
	Rules         []ConditionalRule `json:"rules,omitempty"`
}

// ConditionalRule is a single predicate comparing a prior answer against a
// trigger condition. ParentQuestionID is a reference, not ownership; a rule
// whose parent cannot be resolved fails closed and is reported to the
// authoring side.
type ConditionalRule struct {
	// ID identifies the rule in authoring-side warnings.
	ID string `json:"id,omitempty"`
	// ParentQuestionID names the question whose answer is inspected.
	ParentQuestionID string `json:"parentQuestionId"`
	// TriggerCondition selects the predicate.
	TriggerCondition TriggerCondition `json:"triggerCondition"`
	// TriggerValue is the scalar comparand for text/number/yesNo parents.
	TriggerValue string `json:"triggerValue,omitempty"`
	// TriggerValues is the option value set for choice parents.
	TriggerValues []string `json:"triggerValues,omitempty"`
	// Expression is an expr condition, used with TriggerCondition "expression".
	// The accumulated answers are reachable through the `answers` variable,
	// e.g. `answers.q_area > 50`.
	Expression string `json:"expression,omitempty"`
	// Script is a JavaScript function body, used with TriggerCondition
	// "script". The full function is `function Match(answers) { ${Script} }`
	// and must return a boolean.
	Script string `json:"script,omitempty"`
}

// NavigationLogic decides the next question after an answer is recorded.
// Disabled logic falls back to display-order scanning over visible questions.
type NavigationLogic struct {
	Enabled bool `json:"enabled"`
	// NextQuestionMap maps a normalized answer key to a target question id or
	// the END sentinel.
	NextQuestionMap map[string]string `json:"nextQuestionMap,omitempty"`
	// Cases are expr conditions tried in order when the map has no entry for
	// the answer key. The first matching case routes to its target.
	Cases []NavigationCase `json:"cases,omitempty"`
	// DefaultNextQuestionID is used when neither the map nor the cases match.
	DefaultNextQuestionID string `json:"defaultNextQuestionId,omitempty"`
}

// NavigationCase routes to Then when Case evaluates true. The expr condition
// sees the answers map plus the just-submitted `value`.
type NavigationCase struct {
	Case string `json:"case"`
	Then string `json:"then"`
}
