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

import "github.com/questflow/questflow/api/types"

// ShouldAsk combines a question's conditional rules into one include/exclude
// decision. Inactive questions are never asked. Disabled logic means the
// question is unconditionally eligible. Enabled logic with zero rules hides
// the question: an enabled-but-empty rule set is an authoring accident and
// the conservative reading is to not ask.
func (rc *QuestionnaireCtx) ShouldAsk(qCtx *QuestionCtx, answers map[string]interface{}) bool {
	if !qCtx.Def.Active() {
		return false
	}
	logic := qCtx.Def.ConditionalLogic
	if !logic.Enabled {
		return true
	}
	if len(qCtx.rules) == 0 {
		return false
	}
	if logic.LogicOperator == types.Or {
		for _, r := range qCtx.rules {
			if rc.evaluateRule(qCtx, r, answers) {
				return true
			}
		}
		return false
	}
	// AND is the default operator
	for _, r := range qCtx.rules {
		if !rc.evaluateRule(qCtx, r, answers) {
			return false
		}
	}
	return true
}
