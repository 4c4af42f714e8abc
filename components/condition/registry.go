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

// Package condition provides the pluggable rule matchers behind the
// `expression` and `script` trigger conditions. Matchers follow the
// component lifecycle: a prototype is registered by type, New creates an
// instance, Init decodes its configuration, Match evaluates it against the
// accumulated answers.
package condition

import (
	"fmt"
	"sync"

	"github.com/questflow/questflow/api/types"
)

// AnswersKey is the env variable holding the accumulated answer map.
const AnswersKey = "answers"

// Matcher evaluates one conditional rule kind against the collected answers.
type Matcher interface {
	// Type returns the trigger condition this matcher serves.
	Type() string
	// New creates a new instance of the matcher.
	New() Matcher
	// Init decodes the matcher configuration.
	Init(config types.Config, configuration types.Configuration) error
	// Match evaluates the rule. env carries the answers map under AnswersKey.
	Match(env map[string]interface{}) (bool, error)
	// Destroy releases resources held by the matcher.
	Destroy()
}

// Registry holds the registered matcher prototypes.
var Registry = &MatcherRegistry{}

func init() {
	_ = Registry.Add(&ExprMatcherNode{})
	_ = Registry.Add(&JsMatcherNode{})
}

// MatcherRegistry is a concurrency-safe matcher prototype registry.
type MatcherRegistry struct {
	matchers map[string]Matcher
	sync.RWMutex
}

// Add registers a matcher prototype under its Type.
func (r *MatcherRegistry) Add(matcher Matcher) error {
	r.Lock()
	defer r.Unlock()
	if r.matchers == nil {
		r.matchers = make(map[string]Matcher)
	}
	if _, ok := r.matchers[matcher.Type()]; ok {
		return fmt.Errorf("matcher already registered: %s", matcher.Type())
	}
	r.matchers[matcher.Type()] = matcher
	return nil
}

// NewMatcher creates and initializes a matcher instance of the given type.
func (r *MatcherRegistry) NewMatcher(matcherType string, config types.Config, configuration types.Configuration) (Matcher, error) {
	r.RLock()
	prototype, ok := r.matchers[matcherType]
	r.RUnlock()
	if !ok {
		return nil, fmt.Errorf("matcher not found: %s", matcherType)
	}
	matcher := prototype.New()
	if err := matcher.Init(config, configuration); err != nil {
		return nil, err
	}
	return matcher, nil
}
