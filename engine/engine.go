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

// Package engine implements the dynamic question flow engine: questionnaire
// loading and validation, rule evaluation, conditional visibility, branching
// navigation and the per-attempt flow session state machine.
package engine

import (
	"errors"
	"sync"

	"github.com/questflow/questflow/api/types"
)

// Engine hosts one trade category's questionnaire and creates flow sessions
// for it. The questionnaire can be reloaded; running sessions keep the
// definition they started with.
type Engine struct {
	// Id is the engine identifier, defaulting to the category id.
	Id     string
	config types.Config
	ctx    *QuestionnaireCtx
	sync.RWMutex
}

// New creates an Engine from a questionnaire definition. An empty id adopts
// the definition's category id.
func New(id string, def []byte, opts ...types.Option) (*Engine, error) {
	config := types.NewConfig(opts...)
	return NewWithConfig(id, def, config)
}

// NewWithConfig creates an Engine with an existing Config.
func NewWithConfig(id string, def []byte, config types.Config) (*Engine, error) {
	parser := config.Parser
	if parser == nil {
		parser = &JsonParser{}
	}
	questionnaire, err := parser.DecodeQuestionnaire(def)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = questionnaire.Category.ID
	}
	if id == "" {
		return nil, errors.New("questionnaire has no category id")
	}
	ctx, err := InitQuestionnaireCtx(config, &questionnaire)
	if err != nil {
		return nil, err
	}
	return &Engine{Id: id, config: config, ctx: ctx}, nil
}

// NewSession creates a flow session for one job-posting attempt. The session
// snapshots the current questionnaire context and is not affected by later
// reloads.
func (e *Engine) NewSession(sessionID string) *FlowSession {
	e.RLock()
	ctx := e.ctx
	e.RUnlock()
	return newFlowSession(sessionID, ctx, e.config)
}

// ReloadSelf replaces the questionnaire definition. Sessions created before
// the reload continue on the old definition.
func (e *Engine) ReloadSelf(def []byte) error {
	parser := e.config.Parser
	if parser == nil {
		parser = &JsonParser{}
	}
	questionnaire, err := parser.DecodeQuestionnaire(def)
	if err != nil {
		return err
	}
	ctx, err := InitQuestionnaireCtx(e.config, &questionnaire)
	if err != nil {
		return err
	}
	e.Lock()
	old := e.ctx
	e.ctx = ctx
	e.Unlock()
	if old != nil {
		old.Destroy()
	}
	return nil
}

// Definition returns the current questionnaire definition.
func (e *Engine) Definition() *types.Questionnaire {
	e.RLock()
	defer e.RUnlock()
	return e.ctx.Definition()
}

// DSL returns the current definition encoded with the configured parser.
func (e *Engine) DSL() []byte {
	parser := e.config.Parser
	if parser == nil {
		parser = &JsonParser{}
	}
	e.RLock()
	def := e.ctx.Definition()
	e.RUnlock()
	v, err := parser.EncodeQuestionnaire(def)
	if err != nil {
		return nil
	}
	return v
}

// Stop releases the engine's questionnaire context.
func (e *Engine) Stop() {
	e.Lock()
	defer e.Unlock()
	if e.ctx != nil {
		e.ctx.Destroy()
	}
}
