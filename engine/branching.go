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

	"github.com/expr-lang/expr/vm"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/components/condition"
	"github.com/questflow/questflow/utils/cast"
)

// valueKey is the navigation-case env variable holding the submitted answer.
const valueKey = "value"

// NextAfter resolves the question following qCtx after value was recorded.
// With navigation disabled the category list is scanned in display order for
// the next visible question. With navigation enabled the normalized answer
// key is looked up in nextQuestionMap, then the expr cases are tried in
// order, then defaultNextQuestionId, then the order scan. A dangling target
// is skipped in favor of the next fallback (fail closed, flagged at load).
// The return value is a question id or the END sentinel.
func (rc *QuestionnaireCtx) NextAfter(qCtx *QuestionCtx, value interface{}, answers map[string]interface{}) string {
	nav := qCtx.Def.NavigationLogic
	if nav.Enabled {
		if key, ok := rc.answerKey(qCtx, value); ok {
			if target, found := nav.NextQuestionMap[key]; found {
				if resolved, ok := rc.resolveTarget(target); ok {
					return resolved
				}
			}
		}
		if target, ok := rc.matchNavCase(qCtx, value, answers); ok {
			if resolved, ok := rc.resolveTarget(target); ok {
				return resolved
			}
		}
		if nav.DefaultNextQuestionID != "" {
			if resolved, ok := rc.resolveTarget(nav.DefaultNextQuestionID); ok {
				return resolved
			}
		}
	}
	return rc.nextByOrder(qCtx.Def.ID, answers)
}

// nextByOrder returns the first visible question after afterID in display
// order, or the END sentinel when none remain.
func (rc *QuestionnaireCtx) nextByOrder(afterID string, answers map[string]interface{}) string {
	start := 0
	for i, id := range rc.questionIds {
		if id == afterID {
			start = i + 1
			break
		}
	}
	for _, id := range rc.questionIds[start:] {
		if rc.ShouldAsk(rc.questions[id], answers) {
			return id
		}
	}
	return types.EndSentinel
}

// answerKey normalizes a submitted answer into the nextQuestionMap lookup
// key. Multi-choice answers are not combinable with per-answer branching and
// report no key, falling through to cases and the default target.
func (rc *QuestionnaireCtx) answerKey(qCtx *QuestionCtx, value interface{}) (string, bool) {
	switch qCtx.Def.Type {
	case types.MultiChoice:
		return "", false
	case types.YesNo:
		if b, ok := value.(bool); ok {
			if b {
				return "true", true
			}
			return "false", true
		}
		return cast.NormalizeText(cast.ToString(value)), true
	case types.Number:
		if f, err := cast.ToFloat64E(value); err == nil {
			return cast.ToString(f), true
		}
		return cast.NormalizeText(cast.ToString(value)), true
	case types.SingleChoice:
		// option values are stable slugs, matched exactly
		return strings.TrimSpace(cast.ToString(value)), true
	default:
		return cast.NormalizeText(cast.ToString(value)), true
	}
}

func (rc *QuestionnaireCtx) matchNavCase(qCtx *QuestionCtx, value interface{}, answers map[string]interface{}) (string, bool) {
	if len(qCtx.navCases) == 0 {
		return "", false
	}
	env := map[string]interface{}{
		condition.AnswersKey: answers,
		valueKey:             value,
	}
	for _, c := range qCtx.navCases {
		out, err := vm.Run(c.program, env)
		if err != nil {
			rc.warn(qCtx.Def.ID, "", err.Error())
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return c.then, true
		}
	}
	return "", false
}

// resolveTarget validates a navigation target against the arena. END always
// resolves; unknown ids are dropped so resolution falls through.
func (rc *QuestionnaireCtx) resolveTarget(target string) (string, bool) {
	if target == types.EndSentinel {
		return target, true
	}
	if _, ok := rc.questions[target]; ok {
		return target, true
	}
	return "", false
}
