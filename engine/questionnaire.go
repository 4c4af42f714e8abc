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
	"fmt"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/components/condition"
	"github.com/questflow/questflow/utils/cast"
)

// QuestionnaireCtx is an initialized questionnaire of one trade category.
// Questions live in an arena indexed by identifier: an ordered id slice for
// display-order scans plus an id keyed map for reference lookups, which keeps
// cross-question references cheap and cycle detection a visited set of ids.
type QuestionnaireCtx struct {
	// CategoryID identifies the trade category.
	CategoryID string
	// SelfDefinition is the definition this context was built from.
	SelfDefinition *types.Questionnaire
	config         types.Config
	// questionIds is ordered by displayOrder, id as tiebreak.
	questionIds []string
	questions   map[string]*QuestionCtx
	sync.RWMutex
}

// QuestionCtx is one initialized question: its definition plus the compiled
// rule matchers and navigation cases.
type QuestionCtx struct {
	Def          *types.Question
	rules        []*ruleCtx
	navCases     []*navCaseProgram
	optionValues map[string]struct{}
}

// ruleCtx is a conditional rule prepared for evaluation. Rules flagged
// invalid at load time fail closed.
type ruleCtx struct {
	def     *types.ConditionalRule
	invalid bool
	// matcher serves expression and script rules.
	matcher condition.Matcher
}

// navCaseProgram is one compiled navigation case.
type navCaseProgram struct {
	then    string
	program *vm.Program
}

// InitQuestionnaireCtx validates the definition and builds the question
// arena. Duplicate question ids and duplicate option values are load errors.
// Dangling references, trigger fields that do not fit the parent type and
// uncompilable rule conditions are configuration warnings: the flow still
// runs and the affected rule fails closed.
func InitQuestionnaireCtx(config types.Config, def *types.Questionnaire) (*QuestionnaireCtx, error) {
	ctx := &QuestionnaireCtx{
		CategoryID:     def.Category.ID,
		SelfDefinition: def,
		config:         config,
		questions:      make(map[string]*QuestionCtx),
	}

	ordered := make([]*types.Question, len(def.Metadata.Questions))
	copy(ordered, def.Metadata.Questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DisplayOrder != ordered[j].DisplayOrder {
			return ordered[i].DisplayOrder < ordered[j].DisplayOrder
		}
		return ordered[i].ID < ordered[j].ID
	})

	ctx.questionIds = make([]string, 0, len(ordered))
	for _, item := range ordered {
		if item.ID == "" {
			return nil, fmt.Errorf("question without id in category %s", def.Category.ID)
		}
		if _, ok := ctx.questions[item.ID]; ok {
			return nil, fmt.Errorf("duplicate question id: %s", item.ID)
		}
		qCtx, err := ctx.initQuestion(item)
		if err != nil {
			return nil, err
		}
		ctx.questions[item.ID] = qCtx
		ctx.questionIds = append(ctx.questionIds, item.ID)
	}

	// reference checks need the complete arena
	for _, id := range ctx.questionIds {
		ctx.checkReferences(ctx.questions[id])
	}
	return ctx, nil
}

func (rc *QuestionnaireCtx) initQuestion(def *types.Question) (*QuestionCtx, error) {
	qCtx := &QuestionCtx{
		Def:          def,
		optionValues: make(map[string]struct{}, len(def.Options)),
	}
	for _, opt := range def.Options {
		if _, ok := qCtx.optionValues[opt.Value]; ok {
			return nil, fmt.Errorf("duplicate option value %q in question %s", opt.Value, def.ID)
		}
		qCtx.optionValues[opt.Value] = struct{}{}
	}
	if def.Min != nil && def.Max != nil && *def.Min > *def.Max {
		rc.warn(def.ID, "", "min is greater than max")
	}

	if def.ConditionalLogic.Enabled {
		for i := range def.ConditionalLogic.Rules {
			ruleDef := &def.ConditionalLogic.Rules[i]
			qCtx.rules = append(qCtx.rules, rc.initRule(def, ruleDef))
		}
	}
	if def.NavigationLogic.Enabled {
		for _, c := range def.NavigationLogic.Cases {
			program, err := expr.Compile(c.Case, expr.AllowUndefinedVariables(), expr.AsBool())
			if err != nil {
				rc.warn(def.ID, "", fmt.Sprintf("navigation case %q: %s", c.Case, err))
				continue
			}
			qCtx.navCases = append(qCtx.navCases, &navCaseProgram{then: c.Then, program: program})
		}
	}
	return qCtx, nil
}

func (rc *QuestionnaireCtx) initRule(question *types.Question, def *types.ConditionalRule) *ruleCtx {
	r := &ruleCtx{def: def}
	switch def.TriggerCondition {
	case types.Expression:
		matcher, err := condition.Registry.NewMatcher(string(types.Expression), rc.config,
			types.Configuration{"expression": def.Expression})
		if err != nil {
			rc.warn(question.ID, def.ID, err.Error())
			r.invalid = true
			return r
		}
		r.matcher = matcher
	case types.Script:
		matcher, err := condition.Registry.NewMatcher(string(types.Script), rc.config,
			types.Configuration{"script": def.Script})
		if err != nil {
			rc.warn(question.ID, def.ID, err.Error())
			r.invalid = true
			return r
		}
		r.matcher = matcher
	case types.Equals, types.NotEquals, types.Contains, types.NotContains,
		types.GreaterThan, types.LessThan, types.IsEmpty, types.IsNotEmpty:
	default:
		rc.warn(question.ID, def.ID, fmt.Sprintf("unknown trigger condition %q", def.TriggerCondition))
		r.invalid = true
	}
	return r
}

// checkReferences flags dangling references and trigger fields that do not
// fit the parent question's type. Flagged rules fail closed at runtime.
func (rc *QuestionnaireCtx) checkReferences(qCtx *QuestionCtx) {
	def := qCtx.Def
	for _, r := range qCtx.rules {
		if r.invalid || r.matcher != nil {
			continue
		}
		parent, ok := rc.questions[r.def.ParentQuestionID]
		if !ok {
			rc.warn(def.ID, r.def.ID, fmt.Sprintf("parent question %q does not exist", r.def.ParentQuestionID))
			r.invalid = true
			continue
		}
		switch r.def.TriggerCondition {
		case types.IsEmpty, types.IsNotEmpty:
			// no comparand
		default:
			if parent.Def.Type.IsChoice() {
				if len(r.def.TriggerValues) == 0 {
					rc.warn(def.ID, r.def.ID, "choice parent requires triggerValues")
					r.invalid = true
				}
			} else {
				if len(r.def.TriggerValues) > 0 {
					rc.warn(def.ID, r.def.ID, "triggerValues is only valid for choice parents")
					r.invalid = true
				}
			}
		}
		// authoring mistakes in numeric comparisons stay silent at runtime,
		// so surface them here
		if r.def.TriggerCondition == types.GreaterThan || r.def.TriggerCondition == types.LessThan {
			if !parent.Def.Type.IsChoice() {
				if _, err := cast.ToFloat64E(r.def.TriggerValue); err != nil {
					rc.warn(def.ID, r.def.ID, fmt.Sprintf("trigger value %q is not numeric", r.def.TriggerValue))
				}
			}
		}
	}

	nav := def.NavigationLogic
	if nav.Enabled {
		for key, target := range nav.NextQuestionMap {
			rc.checkNavTarget(def.ID, fmt.Sprintf("nextQuestionMap[%s]", key), target)
		}
		for _, c := range nav.Cases {
			rc.checkNavTarget(def.ID, fmt.Sprintf("case %q", c.Case), c.Then)
		}
		if nav.DefaultNextQuestionID != "" {
			rc.checkNavTarget(def.ID, "defaultNextQuestionId", nav.DefaultNextQuestionID)
		}
	}
}

func (rc *QuestionnaireCtx) checkNavTarget(questionID, where, target string) {
	if target == types.EndSentinel {
		return
	}
	if _, ok := rc.questions[target]; !ok {
		rc.warn(questionID, "", fmt.Sprintf("%s: navigation target %q does not exist", where, target))
	}
}

// warn reports a configuration error to the authoring side. It is never
// surfaced to the user answering questions.
func (rc *QuestionnaireCtx) warn(questionID, ruleID, reason string) {
	err := &types.ConfigError{
		CategoryID: rc.CategoryID,
		QuestionID: questionID,
		RuleID:     ruleID,
		Reason:     reason,
	}
	if rc.config.OnConfigWarning != nil {
		rc.config.OnConfigWarning(rc.CategoryID, questionID, ruleID, err)
	}
	if rc.config.Logger != nil {
		rc.config.Logger.Printf("questflow: %s", err.Error())
	}
}

// QuestionByID looks up a question context by identifier.
func (rc *QuestionnaireCtx) QuestionByID(id string) (*QuestionCtx, bool) {
	rc.RLock()
	defer rc.RUnlock()
	qCtx, ok := rc.questions[id]
	return qCtx, ok
}

// QuestionIDs returns the question ids in display order.
func (rc *QuestionnaireCtx) QuestionIDs() []string {
	rc.RLock()
	defer rc.RUnlock()
	ids := make([]string, len(rc.questionIds))
	copy(ids, rc.questionIds)
	return ids
}

// FirstQuestion returns the first question eligible under the given answers,
// or false when the questionnaire has none.
func (rc *QuestionnaireCtx) FirstQuestion(answers map[string]interface{}) (*QuestionCtx, bool) {
	for _, id := range rc.questionIds {
		qCtx := rc.questions[id]
		if rc.ShouldAsk(qCtx, answers) {
			return qCtx, true
		}
	}
	return nil, false
}

// Definition returns the definition this context was built from.
func (rc *QuestionnaireCtx) Definition() *types.Questionnaire {
	return rc.SelfDefinition
}

// Destroy releases the rule matchers.
func (rc *QuestionnaireCtx) Destroy() {
	rc.Lock()
	defer rc.Unlock()
	for _, qCtx := range rc.questions {
		for _, r := range qCtx.rules {
			if r.matcher != nil {
				r.matcher.Destroy()
			}
		}
	}
}
