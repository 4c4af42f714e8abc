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

// Package json wraps encoding/json with HTML escaping disabled, so question
// texts and option labels survive encoding untouched.
package json

import (
	"bytes"
	"encoding/json"
)

// Marshal returns the JSON encoding of v without escaping HTML characters.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err == nil && buf.Len() > 0 {
		// drop the trailing newline the encoder appends
		return buf.Bytes()[:buf.Len()-1], nil
	}
	return buf.Bytes(), err
}

// Format indents JSON data for readability.
func Format(v []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, v, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses JSON data into m.
func Unmarshal(b []byte, m interface{}) error {
	return json.Unmarshal(b, m)
}
