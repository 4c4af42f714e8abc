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
	"strings"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/components/condition"
	"github.com/questflow/questflow/utils/cast"
)

// evaluateRule evaluates one conditional rule against the accumulated answer
// map. Rules fail closed: an unresolvable parent, a misconfigured trigger
// field or an evaluation error all yield false, never a user-facing error.
func (rc *QuestionnaireCtx) evaluateRule(qCtx *QuestionCtx, r *ruleCtx, answers map[string]interface{}) bool {
	if r.invalid {
		return false
	}
	if r.matcher != nil {
		env := map[string]interface{}{condition.AnswersKey: answers}
		matched, err := r.matcher.Match(env)
		if err != nil {
			rc.warn(qCtx.Def.ID, r.def.ID, err.Error())
			return false
		}
		return matched
	}

	parent, ok := rc.questions[r.def.ParentQuestionID]
	if !ok {
		// flagged at load; stays fail-closed at runtime
		return false
	}

	answer, present := answers[r.def.ParentQuestionID]
	switch r.def.TriggerCondition {
	case types.IsEmpty:
		return !present || cast.IsEmpty(answer)
	case types.IsNotEmpty:
		return present && !cast.IsEmpty(answer)
	}
	if !present {
		// the rule cannot match on absent data
		return false
	}

	switch r.def.TriggerCondition {
	case types.Equals:
		return rc.equals(parent, r.def, answer)
	case types.NotEquals:
		return !rc.equals(parent, r.def, answer)
	case types.Contains:
		return rc.contains(parent, r.def, answer)
	case types.NotContains:
		return !rc.contains(parent, r.def, answer)
	case types.GreaterThan:
		answerNum, err1 := cast.ToFloat64E(answer)
		triggerNum, err2 := cast.ToFloat64E(r.def.TriggerValue)
		return err1 == nil && err2 == nil && answerNum > triggerNum
	case types.LessThan:
		answerNum, err1 := cast.ToFloat64E(answer)
		triggerNum, err2 := cast.ToFloat64E(r.def.TriggerValue)
		return err1 == nil && err2 == nil && answerNum < triggerNum
	default:
		return false
	}
}

// equals compares the answer against the rule comparand. Choice parents
// compare as value sets; everything else compares numerically when both
// sides parse, otherwise as trimmed case-insensitive text.
func (rc *QuestionnaireCtx) equals(parent *QuestionCtx, def *types.ConditionalRule, answer interface{}) bool {
	if parent.Def.Type.IsChoice() {
		return sameValueSet(cast.ToStringSlice(answer), def.TriggerValues)
	}
	answerNum, err1 := cast.ToFloat64E(answer)
	triggerNum, err2 := cast.ToFloat64E(def.TriggerValue)
	if err1 == nil && err2 == nil {
		return answerNum == triggerNum
	}
	return cast.NormalizeText(cast.ToString(answer)) == cast.NormalizeText(def.TriggerValue)
}

// contains applies any-of semantics for choice parents (the answer set
// intersects triggerValues at all) and a case-insensitive substring test for
// text answers.
func (rc *QuestionnaireCtx) contains(parent *QuestionCtx, def *types.ConditionalRule, answer interface{}) bool {
	if parent.Def.Type.IsChoice() {
		selected := cast.ToStringSlice(answer)
		for _, v := range selected {
			for _, trigger := range def.TriggerValues {
				if v == trigger {
					return true
				}
			}
		}
		return false
	}
	return strings.Contains(cast.NormalizeText(cast.ToString(answer)), cast.NormalizeText(def.TriggerValue))
}

func sameValueSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
