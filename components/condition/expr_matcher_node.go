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

package condition

// rule configuration example:
//{
//  "parentQuestionId": "q_area",
//  "triggerCondition": "expression",
//  "expression": "answers.q_area > 50"
//}
import (
	"errors"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/utils/maps"
)

// ExprMatcherNodeConfiguration holds the expr condition.
type ExprMatcherNodeConfiguration struct {
	// Expression accesses the accumulated answers through the `answers`
	// variable, e.g. `answers.q_services contains "roofing"`.
	Expression string
}

// ExprMatcherNode evaluates a rule with an expr condition. Any evaluation
// error makes the rule fail closed.
type ExprMatcherNode struct {
	Config  ExprMatcherNodeConfiguration
	program *vm.Program
}

// Type returns the trigger condition served by this matcher.
func (x *ExprMatcherNode) Type() string {
	return string(types.Expression)
}

func (x *ExprMatcherNode) New() Matcher {
	return &ExprMatcherNode{}
}

// Init compiles the expression.
func (x *ExprMatcherNode) Init(_ types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if x.Config.Expression == "" {
		return errors.New("expression can not be empty")
	}
	program, err := expr.Compile(x.Config.Expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return err
	}
	x.program = program
	return nil
}

// Match runs the compiled expression against the answers env.
func (x *ExprMatcherNode) Match(env map[string]interface{}) (bool, error) {
	out, err := vm.Run(x.program, env)
	if err != nil {
		return false, err
	}
	result, ok := out.(bool)
	return ok && result, nil
}

// Destroy releases nothing; compiled programs are garbage collected.
func (x *ExprMatcherNode) Destroy() {
}
