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

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithOnConfigWarning is an option that sets the configuration warning hook of the Config.
func WithOnConfigWarning(onConfigWarning func(categoryID, questionID, ruleID string, err error)) Option {
	return func(c *Config) error {
		c.OnConfigWarning = onConfigWarning
		return nil
	}
}

// WithOnSessionEnd is an option that sets the session end callback of the Config.
func WithOnSessionEnd(onSessionEnd func(sessionID string, state SessionState, answers []AnswerRecord)) Option {
	return func(c *Config) error {
		c.OnSessionEnd = onSessionEnd
		return nil
	}
}

// WithScriptMaxExecutionTime is an option that sets the script max execution time of the Config.
func WithScriptMaxExecutionTime(scriptMaxExecutionTime time.Duration) Option {
	return func(c *Config) error {
		c.ScriptMaxExecutionTime = scriptMaxExecutionTime
		return nil
	}
}

// WithParser is an option that sets the questionnaire parser of the Config.
func WithParser(parser Parser) Option {
	return func(c *Config) error {
		c.Parser = parser
		return nil
	}
}

// WithProperties is an option that sets the global properties of the Config.
func WithProperties(properties Metadata) Option {
	return func(c *Config) error {
		c.Properties = properties
		return nil
	}
}
