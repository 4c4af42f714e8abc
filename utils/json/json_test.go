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

package json

import (
	"strings"
	"testing"

	"github.com/questflow/questflow/test/assert"
)

func TestMarshal(t *testing.T) {
	b, err := Marshal(map[string]string{"text": "Is the area > 50m²? Read FAQ & more"})
	assert.Nil(t, err)
	s := string(b)
	// HTML characters stay verbatim, no trailing newline
	assert.True(t, strings.Contains(s, "> 50m²"))
	assert.True(t, strings.Contains(s, "& more"))
	assert.False(t, strings.HasSuffix(s, "\n"))
}

func TestFormat(t *testing.T) {
	out, err := Format([]byte(`{"a":1,"b":[2,3]}`))
	assert.Nil(t, err)
	assert.True(t, strings.Contains(string(out), "\n  \"a\": 1"))

	_, err = Format([]byte(`{"a":`))
	assert.NotNil(t, err)
}

func TestUnmarshal(t *testing.T) {
	var m map[string]interface{}
	err := Unmarshal([]byte(`{"a":1}`), &m)
	assert.Nil(t, err)
	assert.Equal(t, float64(1), m["a"])
}
