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
	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/utils/json"
)

// JsonParser decodes questionnaire definitions from JSON.
type JsonParser struct {
}

// DecodeQuestionnaire parses a questionnaire definition.
func (p *JsonParser) DecodeQuestionnaire(def []byte) (types.Questionnaire, error) {
	var questionnaire types.Questionnaire
	err := json.Unmarshal(def, &questionnaire)
	return questionnaire, err
}

// EncodeQuestionnaire serializes a questionnaire definition as formatted JSON.
func (p *JsonParser) EncodeQuestionnaire(def interface{}) ([]byte, error) {
	v, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}
	return json.Format(v)
}
