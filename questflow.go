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

// Package questflow provides a dynamic question flow engine for
// trade-category job-posting questionnaires: conditional visibility over
// collected answers, per-answer branching navigation, backtracking with
// answer invalidation and cycle detection.
//
// Questionnaire definition format:
//
//	{
//	  "category": {"id": "plumbing", "name": "Plumbing"},
//	  "metadata": {
//	    "questions": [
//	      {
//	        "id": "q_urgent",
//	        "text": "Is this urgent?",
//	        "type": "yesNo",
//	        "isRequired": true,
//	        "displayOrder": 1,
//	        "navigationLogic": {
//	          "enabled": true,
//	          "nextQuestionMap": {"true": "q_when", "false": "q_details"}
//	        }
//	      }
//	    ]
//	  }
//	}
//
// Create an engine and run a session:
//
//	engine, err := questflow.New("plumbing", []byte(definition))
//	session := engine.NewSession("")
//	step := session.Start()
//	step, err = session.Answer(step.Question.ID, true)
//
// Or drive sessions through a SessionPool, which generates ids and evicts
// abandoned sessions on a schedule.
package questflow

import (
	"strings"
	"sync"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/engine"
	"github.com/questflow/questflow/utils/fs"
)

// DefaultQuestFlow is the default engine pool.
var DefaultQuestFlow = &QuestFlow{}

// QuestFlow is a pool of question flow engines, one per trade category.
type QuestFlow struct {
	engines sync.Map
}

// Load loads every *.json questionnaire definition under folderPath into the
// pool, keyed by the definition's category id.
func (q *QuestFlow) Load(folderPath string, opts ...types.Option) error {
	if !strings.HasSuffix(folderPath, "*.json") {
		if folderPath == "" {
			folderPath = "./*.json"
		} else if strings.HasSuffix(folderPath, "/") {
			folderPath = folderPath + "*.json"
		} else {
			folderPath = folderPath + "/*.json"
		}
	}
	paths, err := fs.GetFilePaths(folderPath)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if b := fs.LoadFile(path); b != nil {
			if _, err = q.New("", b, opts...); err != nil {
				return err
			}
		}
	}
	return nil
}

// New creates an engine from a questionnaire definition and stores it in the
// pool. An empty id adopts the definition's category id. Creating an engine
// under an existing id returns the stored engine unchanged.
func (q *QuestFlow) New(id string, def []byte, opts ...types.Option) (*engine.Engine, error) {
	if id != "" {
		if v, ok := q.engines.Load(id); ok {
			return v.(*engine.Engine), nil
		}
	}
	e, err := engine.New(id, def, opts...)
	if err != nil {
		return nil, err
	}
	// An empty id is only resolved after decoding the definition, so the
	// pool is re-checked under the resolved id before storing.
	if v, loaded := q.engines.LoadOrStore(e.Id, e); loaded {
		e.Stop()
		return v.(*engine.Engine), nil
	}
	return e, nil
}

// Get returns the engine stored under id.
func (q *QuestFlow) Get(id string) (*engine.Engine, bool) {
	v, ok := q.engines.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*engine.Engine), true
}

// Del stops and removes the engine stored under id.
func (q *QuestFlow) Del(id string) {
	if v, ok := q.engines.Load(id); ok {
		v.(*engine.Engine).Stop()
		q.engines.Delete(id)
	}
}

// Range iterates over the pooled engines.
func (q *QuestFlow) Range(f func(id string, e *engine.Engine) bool) {
	q.engines.Range(func(key, value any) bool {
		return f(key.(string), value.(*engine.Engine))
	})
}

// Stop releases every engine in the pool.
func (q *QuestFlow) Stop() {
	q.engines.Range(func(key, value any) bool {
		if e, ok := value.(*engine.Engine); ok {
			e.Stop()
		}
		q.engines.Delete(key)
		return true
	})
}

// Load loads questionnaire definitions into the default pool.
func Load(folderPath string, opts ...types.Option) error {
	return DefaultQuestFlow.Load(folderPath, opts...)
}

// New creates an engine in the default pool.
func New(id string, def []byte, opts ...types.Option) (*engine.Engine, error) {
	return DefaultQuestFlow.New(id, def, opts...)
}

// Get returns an engine from the default pool.
func Get(id string) (*engine.Engine, bool) {
	return DefaultQuestFlow.Get(id)
}

// Del removes an engine from the default pool.
func Del(id string) {
	DefaultQuestFlow.Del(id)
}

// Stop releases every engine in the default pool.
func Stop() {
	DefaultQuestFlow.Stop()
}
