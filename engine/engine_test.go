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
	"testing"

	"github.com/questflow/questflow/test/assert"
)

var fencingDsl = `{
  "category": {"id": "fencing", "name": "Fencing"},
  "metadata": {
    "questions": [
      {"id": "q_length", "text": "Fence length in meters?", "type": "number", "displayOrder": 1},
      {"id": "q_material", "text": "Preferred material?", "type": "shortText", "displayOrder": 2}
    ]
  }
}`

func TestEngineNew(t *testing.T) {
	t.Run("EmptyIDAdoptsCategory", func(t *testing.T) {
		e, err := New("", []byte(fencingDsl))
		assert.Nil(t, err)
		defer e.Stop()
		assert.Equal(t, "fencing", e.Id)
		assert.Equal(t, "fencing", e.Definition().Category.ID)
	})

	t.Run("ExplicitID", func(t *testing.T) {
		e, err := New("fencing-v2", []byte(fencingDsl))
		assert.Nil(t, err)
		defer e.Stop()
		assert.Equal(t, "fencing-v2", e.Id)
	})

	t.Run("NoCategoryID", func(t *testing.T) {
		_, err := New("", []byte(`{"category":{"name":"anonymous"}}`))
		assert.NotNil(t, err)
	})

	t.Run("InvalidJson", func(t *testing.T) {
		_, err := New("x", []byte(`{`))
		assert.NotNil(t, err)
	})
}

func TestEngineReload(t *testing.T) {
	e, err := New("", []byte(fencingDsl))
	assert.Nil(t, err)
	defer e.Stop()

	// a session created before the reload keeps its definition
	session := e.NewSession("s1")
	step := session.Start()
	assert.Equal(t, "q_length", step.Question.ID)

	reloaded := strings.Replace(fencingDsl, "q_length", "q_height", 2)
	assert.Nil(t, e.ReloadSelf([]byte(reloaded)))
	assert.Equal(t, "q_height", e.Definition().Metadata.Questions[0].ID)

	step, err = session.Answer("q_length", 25)
	assert.Nil(t, err)
	assert.Equal(t, "q_material", step.Question.ID)

	// sessions created after the reload see the new definition
	step = e.NewSession("s2").Start()
	assert.Equal(t, "q_height", step.Question.ID)
}

func TestEngineDSL(t *testing.T) {
	e, err := New("", []byte(fencingDsl))
	assert.Nil(t, err)
	defer e.Stop()

	dsl := e.DSL()
	assert.NotNil(t, dsl)
	assert.True(t, strings.Contains(string(dsl), `"id": "fencing"`))
	assert.True(t, strings.Contains(string(dsl), "q_length"))
}
