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

// Package fs provides file helpers for loading questionnaire definitions.
package fs

import (
	"os"
	"path/filepath"
)

// GetFilePaths returns the paths matching the glob pattern, descending one
// level into subdirectories for directory matches.
func GetFilePaths(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.IsDir() {
			sub, err := filepath.Glob(filepath.Join(match, filepath.Base(pattern)))
			if err == nil {
				paths = append(paths, sub...)
			}
			continue
		}
		paths = append(paths, match)
	}
	return paths, nil
}

// LoadFile reads the file at path, returning nil on failure.
func LoadFile(path string) []byte {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return b
}
