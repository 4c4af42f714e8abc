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

package questflow

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/engine"
	"github.com/questflow/questflow/test/assert"
)

var plumbingDsl = `{
  "category": {"id": "plumbing", "name": "Plumbing"},
  "metadata": {
    "questions": [
      {
        "id": "q_urgent",
        "text": "Is this urgent?",
        "type": "yesNo",
        "isRequired": true,
        "displayOrder": 1,
        "navigationLogic": {
          "enabled": true,
          "nextQuestionMap": {"true": "q_details", "false": "q_when"}
        }
      },
      {
        "id": "q_when",
        "text": "When should the work start?",
        "type": "shortText",
        "displayOrder": 2
      },
      {
        "id": "q_details",
        "text": "Describe the problem",
        "type": "longText",
        "displayOrder": 3
      }
    ]
  }
}`

func TestQuestFlowPool(t *testing.T) {
	t.Run("NewAdoptsCategoryID", func(t *testing.T) {
		pool := &QuestFlow{}
		defer pool.Stop()

		e, err := pool.New("", []byte(plumbingDsl))
		assert.Nil(t, err)
		assert.Equal(t, "plumbing", e.Id)

		got, ok := pool.Get("plumbing")
		assert.True(t, ok)
		assert.Equal(t, e, got)
	})

	t.Run("EmptyIDResolvesBeforePoolLookup", func(t *testing.T) {
		pool := &QuestFlow{}
		defer pool.Stop()

		first, err := pool.New("", []byte(plumbingDsl))
		assert.Nil(t, err)
		second, err := pool.New("", []byte(plumbingDsl))
		assert.Nil(t, err)
		assert.Equal(t, first, second)

		var count int
		pool.Range(func(id string, e *engine.Engine) bool {
			count++
			return true
		})
		assert.Equal(t, 1, count)
	})

	t.Run("ExistingIDReturnsStoredEngine", func(t *testing.T) {
		pool := &QuestFlow{}
		defer pool.Stop()

		first, err := pool.New("plumbing", []byte(plumbingDsl))
		assert.Nil(t, err)
		second, err := pool.New("plumbing", []byte(`{"category":{"id":"other"}}`))
		assert.Nil(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("Del", func(t *testing.T) {
		pool := &QuestFlow{}
		defer pool.Stop()

		_, err := pool.New("", []byte(plumbingDsl))
		assert.Nil(t, err)
		pool.Del("plumbing")
		_, ok := pool.Get("plumbing")
		assert.False(t, ok)
	})

	t.Run("Range", func(t *testing.T) {
		pool := &QuestFlow{}
		defer pool.Stop()

		_, err := pool.New("", []byte(plumbingDsl))
		assert.Nil(t, err)
		var ids []string
		pool.Range(func(id string, e *engine.Engine) bool {
			ids = append(ids, id)
			return true
		})
		assert.Equal(t, []string{"plumbing"}, ids)
	})

	t.Run("LoadFolder", func(t *testing.T) {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, "plumbing.json"), []byte(plumbingDsl), 0644)
		assert.Nil(t, err)

		pool := &QuestFlow{}
		defer pool.Stop()
		assert.Nil(t, pool.Load(dir))
		_, ok := pool.Get("plumbing")
		assert.True(t, ok)
	})
}

func TestSessionPool(t *testing.T) {
	newPool := func(t *testing.T, opts ...SessionPoolOption) *SessionPool {
		t.Helper()
		flow := &QuestFlow{}
		t.Cleanup(flow.Stop)
		_, err := flow.New("", []byte(plumbingDsl))
		assert.Nil(t, err)
		p := NewSessionPool(flow, opts...)
		t.Cleanup(p.Stop)
		return p
	}

	t.Run("StartAnswerBack", func(t *testing.T) {
		p := newPool(t)
		sessionID, step, err := p.StartFlow("plumbing")
		assert.Nil(t, err)
		assert.NotEqual(t, "", sessionID)
		assert.Equal(t, types.StateInProgress, step.State)
		assert.Equal(t, "q_urgent", step.Question.ID)

		step, err = p.Answer(sessionID, "q_urgent", true)
		assert.Nil(t, err)
		assert.Equal(t, "q_details", step.Question.ID)

		step, err = p.Back(sessionID)
		assert.Nil(t, err)
		assert.Equal(t, "q_urgent", step.Question.ID)
		assert.Equal(t, 0, len(step.Answers))
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		p := newPool(t)
		_, _, err := p.StartFlow("carpentry")
		assert.NotNil(t, err)
	})

	t.Run("UnknownSession", func(t *testing.T) {
		p := newPool(t)
		_, err := p.Answer("nope", "q_urgent", true)
		assert.NotNil(t, err)
	})

	t.Run("Discard", func(t *testing.T) {
		p := newPool(t)
		sessionID, _, err := p.StartFlow("plumbing")
		assert.Nil(t, err)
		p.Discard(sessionID)
		_, ok := p.Session(sessionID)
		assert.False(t, ok)
	})

	t.Run("EvictIdle", func(t *testing.T) {
		p := newPool(t, WithIdleTimeout(time.Nanosecond))
		sessionID, _, err := p.StartFlow("plumbing")
		assert.Nil(t, err)

		time.Sleep(5 * time.Millisecond)
		p.evictIdle()
		_, ok := p.Session(sessionID)
		assert.False(t, ok)
	})

	t.Run("JanitorStartsAndStops", func(t *testing.T) {
		p := newPool(t, WithJanitorSpec("@every 1s"))
		assert.Nil(t, p.StartJanitor())
		// idempotent
		assert.Nil(t, p.StartJanitor())
		p.Stop()
	})

	t.Run("JanitorConcurrentStartStop", func(t *testing.T) {
		p := newPool(t, WithJanitorSpec("@every 1s"))
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				assert.Nil(t, p.StartJanitor())
			}()
			go func() {
				defer wg.Done()
				p.Stop()
			}()
		}
		wg.Wait()
		p.Stop()
	})
}
