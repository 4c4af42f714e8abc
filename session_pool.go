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
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/robfig/cron/v3"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/engine"
)

const (
	// DefaultIdleTimeout evicts sessions untouched for this long.
	DefaultIdleTimeout = 30 * time.Minute
	// DefaultJanitorSpec is the eviction schedule.
	DefaultJanitorSpec = "@every 1m"
)

// SessionPool hands out flow sessions keyed by generated ids and applies the
// caller-side timeout policy the engine itself deliberately lacks: abandoned
// sessions are discarded on a cron schedule. Access through the pool is
// serialized per session, so concurrent callers degrade to the stale
// submission rule instead of racing session state.
type SessionPool struct {
	flow        *QuestFlow
	sessions    sync.Map
	idleTimeout time.Duration
	janitorSpec string
	cronMu      sync.Mutex
	cron        *cron.Cron
	logger      types.Logger
}

type sessionEntry struct {
	sync.Mutex
	session    *engine.FlowSession
	lastActive time.Time
}

// SessionPoolOption modifies a SessionPool.
type SessionPoolOption func(*SessionPool)

// WithIdleTimeout sets how long an untouched session survives.
func WithIdleTimeout(d time.Duration) SessionPoolOption {
	return func(p *SessionPool) {
		p.idleTimeout = d
	}
}

// WithJanitorSpec sets the eviction cron spec, e.g. "@every 5m".
func WithJanitorSpec(spec string) SessionPoolOption {
	return func(p *SessionPool) {
		p.janitorSpec = spec
	}
}

// WithSessionPoolLogger sets the pool logger.
func WithSessionPoolLogger(logger types.Logger) SessionPoolOption {
	return func(p *SessionPool) {
		p.logger = logger
	}
}

// NewSessionPool creates a SessionPool over the given engine pool.
func NewSessionPool(flow *QuestFlow, opts ...SessionPoolOption) *SessionPool {
	p := &SessionPool{
		flow:        flow,
		idleTimeout: DefaultIdleTimeout,
		janitorSpec: DefaultJanitorSpec,
		logger:      types.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StartJanitor begins evicting idle sessions on the configured schedule.
// Calling it on a pool whose janitor is already running is a no-op.
func (p *SessionPool) StartJanitor() error {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()
	if p.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(p.janitorSpec, p.evictIdle); err != nil {
		return err
	}
	c.Start()
	p.cron = c
	return nil
}

// Stop halts the janitor and drops every session.
func (p *SessionPool) Stop() {
	p.cronMu.Lock()
	if p.cron != nil {
		p.cron.Stop()
		p.cron = nil
	}
	p.cronMu.Unlock()
	p.sessions.Range(func(key, value any) bool {
		p.sessions.Delete(key)
		return true
	})
}

// StartFlow starts a session for the category and returns its generated id
// with the first step.
func (p *SessionPool) StartFlow(categoryID string) (string, *engine.StepResult, error) {
	e, ok := p.flow.Get(categoryID)
	if !ok {
		return "", nil, fmt.Errorf("unknown category: %s", categoryID)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return "", nil, err
	}
	session := e.NewSession(id.String())
	entry := &sessionEntry{session: session, lastActive: time.Now()}
	p.sessions.Store(id.String(), entry)
	return id.String(), session.Start(), nil
}

// Answer submits an answer on the identified session.
func (p *SessionPool) Answer(sessionID, questionID string, value interface{}) (*engine.StepResult, error) {
	entry, err := p.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.Lock()
	defer entry.Unlock()
	entry.lastActive = time.Now()
	return entry.session.Answer(questionID, value)
}

// Back navigates the identified session one question back.
func (p *SessionPool) Back(sessionID string) (*engine.StepResult, error) {
	entry, err := p.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.Lock()
	defer entry.Unlock()
	entry.lastActive = time.Now()
	return entry.session.Back()
}

// Session returns the identified session.
func (p *SessionPool) Session(sessionID string) (*engine.FlowSession, bool) {
	v, ok := p.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*sessionEntry).session, true
}

// Discard removes a session from the pool.
func (p *SessionPool) Discard(sessionID string) {
	p.sessions.Delete(sessionID)
}

func (p *SessionPool) entry(sessionID string) (*sessionEntry, error) {
	v, ok := p.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", sessionID)
	}
	return v.(*sessionEntry), nil
}

func (p *SessionPool) evictIdle() {
	deadline := time.Now().Add(-p.idleTimeout)
	p.sessions.Range(func(key, value any) bool {
		entry := value.(*sessionEntry)
		entry.Lock()
		idle := entry.lastActive.Before(deadline)
		entry.Unlock()
		if idle {
			p.sessions.Delete(key)
			p.logger.Printf("questflow: evicted idle session %v", key)
		}
		return true
	})
}
