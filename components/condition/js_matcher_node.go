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
//  "parentQuestionId": "q_services",
//  "triggerCondition": "script",
//  "script": "return answers.q_services != null && answers.q_services.indexOf('roofing') >= 0;"
//}
import (
	"errors"
	"fmt"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/components/js"
	"github.com/questflow/questflow/utils/maps"
)

// JsMatcherNodeConfiguration holds the JavaScript function body.
type JsMatcherNodeConfiguration struct {
	// Script is the body of `function Match(answers) { ${Script} }` and must
	// return a boolean. The answers map is exposed as `answers`; global
	// properties are reachable through `global`.
	Script string
}

// JsMatcherNode evaluates a rule with a JavaScript condition. A non-boolean
// return value or any script error makes the rule fail closed.
type JsMatcherNode struct {
	Config   JsMatcherNodeConfiguration
	jsEngine *js.GojaJsEngine
}

// Type returns the trigger condition served by this matcher.
func (x *JsMatcherNode) Type() string {
	return string(types.Script)
}

func (x *JsMatcherNode) New() Matcher {
	return &JsMatcherNode{}
}

// Init compiles the wrapped script.
func (x *JsMatcherNode) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if x.Config.Script == "" {
		return errors.New("script can not be empty")
	}
	jsScript := fmt.Sprintf("function Match(answers) { %s }", x.Config.Script)
	jsEngine, err := js.NewGojaJsEngine(config, jsScript, nil)
	if err != nil {
		return err
	}
	x.jsEngine = jsEngine
	return nil
}

// Match executes the script against the answers env.
func (x *JsMatcherNode) Match(env map[string]interface{}) (bool, error) {
	out, err := x.jsEngine.Execute("Match", env[AnswersKey])
	if err != nil {
		return false, err
	}
	result, ok := out.(bool)
	if !ok {
		return false, errors.New("script did not return a boolean")
	}
	return result, nil
}

// Destroy stops the script engine.
func (x *JsMatcherNode) Destroy() {
	if x.jsEngine != nil {
		x.jsEngine.Stop()
	}
}
