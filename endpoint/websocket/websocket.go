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

// Package websocket drives a flow session interactively over one websocket
// connection: the server pushes the current question, the client answers or
// steps back, until the flow completes or aborts.
//
// Server frames: {"type":"question"|"completed"|"aborted"|"notStarted"|"error", ...}
// Client frames: {"questionId":"...","value":...} or {"back":true}
package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/questflow/questflow"
	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/engine"
)

// Websocket is the websocket adapter over a session pool.
type Websocket struct {
	// Server is the listen address, e.g. ":9091".
	Server   string
	pool     *questflow.SessionPool
	logger   types.Logger
	upgrader websocket.Upgrader
	server   *http.Server
}

// ClientFrame is one message from the answering client.
type ClientFrame struct {
	QuestionID string      `json:"questionId,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	Back       bool        `json:"back,omitempty"`
}

// ServerFrame is one message pushed to the client.
type ServerFrame struct {
	Type      string               `json:"type"`
	SessionID string               `json:"sessionId,omitempty"`
	Question  *types.Question      `json:"question,omitempty"`
	Answers   []types.AnswerRecord `json:"answers,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// New creates a Websocket adapter listening on server.
func New(server string, pool *questflow.SessionPool, logger types.Logger) *Websocket {
	return &Websocket{
		Server: server,
		pool:   pool,
		logger: types.NewLogger(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start begins serving GET /ws/flow/:category in the background.
func (ws *Websocket) Start() error {
	router := httprouter.New()
	router.GET("/ws/flow/:category", ws.serveFlow)
	ws.server = &http.Server{Addr: ws.Server, Handler: router}
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ws.logger.Printf("websocket endpoint error: %s", err.Error())
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (ws *Websocket) Stop() {
	if ws.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = ws.server.Shutdown(ctx)
}

func (ws *Websocket) serveFlow(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Printf("websocket upgrade error: %s", err.Error())
		return
	}
	defer conn.Close()

	sessionID, step, err := ws.pool.StartFlow(params.ByName("category"))
	if err != nil {
		_ = conn.WriteJSON(&ServerFrame{Type: "error", Error: err.Error()})
		return
	}
	defer ws.pool.Discard(sessionID)

	if done := ws.push(conn, sessionID, step); done {
		return
	}
	for {
		var frame ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		var result *engine.StepResult
		if frame.Back {
			result, err = ws.pool.Back(sessionID)
		} else {
			result, err = ws.pool.Answer(sessionID, frame.QuestionID, frame.Value)
		}
		if err != nil {
			// validation errors are recoverable: report and keep the session
			if writeErr := conn.WriteJSON(&ServerFrame{Type: "error", SessionID: sessionID, Error: err.Error()}); writeErr != nil {
				return
			}
			continue
		}
		if done := ws.push(conn, sessionID, result); done {
			return
		}
	}
}

// push sends the step to the client and reports whether the flow finished.
func (ws *Websocket) push(conn *websocket.Conn, sessionID string, step *engine.StepResult) bool {
	frame := &ServerFrame{SessionID: sessionID}
	switch step.State {
	case types.StateInProgress:
		frame.Type = "question"
		frame.Question = step.Question
	case types.StateCompleted:
		frame.Type = "completed"
		frame.Answers = step.Answers
	case types.StateAborted:
		frame.Type = "aborted"
		frame.Answers = step.Answers
	default:
		frame.Type = "notStarted"
	}
	if err := conn.WriteJSON(frame); err != nil {
		return true
	}
	return step.State.Finished()
}
