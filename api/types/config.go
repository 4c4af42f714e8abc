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

package types

import "time"

// Config defines the configuration for the question flow engine.
type Config struct {
	// OnConfigWarning is the authoring-side reporting hook for configuration
	// errors tolerated at runtime: dangling question references, trigger
	// fields that do not fit the parent question's type, uncompilable rule
	// expressions. Warnings are never shown to the user answering questions.
	OnConfigWarning func(categoryID, questionID, ruleID string, err error)
	// OnSessionEnd is called when a session reaches Completed or Aborted,
	// with the ordered answers collected up to that point.
	OnSessionEnd func(sessionID string, state SessionState, answers []AnswerRecord)
	// ScriptMaxExecutionTime bounds script rule execution, default 2000ms.
	ScriptMaxExecutionTime time.Duration
	// Parser decodes questionnaire definitions, default the JSON parser.
	Parser Parser
	// Logger is the logging interface, default DefaultLogger().
	Logger Logger
	// Properties are global key/value properties exposed to script rules
	// through the `global` variable.
	Properties Metadata
	// Udf registers custom functions callable from script rules.
	Udf map[string]interface{}
}

// RegisterUdf registers a custom function for script rules.
func (c *Config) RegisterUdf(name string, value interface{}) {
	if c.Udf == nil {
		c.Udf = make(map[string]interface{})
	}
	c.Udf[name] = value
}

// NewConfig creates a Config with default values and applies the options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
		Properties:             NewMetadata(),
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
