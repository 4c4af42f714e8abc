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

// Package rest exposes the question flow engine over HTTP:
//
//	POST   /api/v1/flow/:category            start a session
//	GET    /api/v1/session/:sessionId        session snapshot
//	POST   /api/v1/session/:sessionId/answer submit an answer
//	POST   /api/v1/session/:sessionId/back   go back one question
//	DELETE /api/v1/session/:sessionId        discard the session
package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/questflow/questflow"
	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/engine"
	"github.com/questflow/questflow/utils/json"
)

// ContentTypeKey and JsonContextType are the response content type.
const (
	ContentTypeKey  = "Content-Type"
	JsonContextType = "application/json"
)

// Rest is the HTTP adapter over a session pool.
type Rest struct {
	// Server is the listen address, e.g. ":9090".
	Server string
	pool   *questflow.SessionPool
	logger types.Logger
	router *httprouter.Router
	server *http.Server
}

// AnswerRequest is the body of an answer submission.
type AnswerRequest struct {
	QuestionID string      `json:"questionId"`
	Value      interface{} `json:"value"`
}

// StartResponse is the body returned when a session starts.
type StartResponse struct {
	SessionID string `json:"sessionId"`
	*engine.StepResult
}

// ErrorResponse carries a caller-facing error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New creates a Rest adapter listening on server.
func New(server string, pool *questflow.SessionPool, logger types.Logger) *Rest {
	r := &Rest{
		Server: server,
		pool:   pool,
		logger: types.NewLogger(logger),
	}
	router := httprouter.New()
	router.POST("/api/v1/flow/:category", r.startFlow)
	router.GET("/api/v1/session/:sessionId", r.sessionState)
	router.POST("/api/v1/session/:sessionId/answer", r.answer)
	router.POST("/api/v1/session/:sessionId/back", r.back)
	router.DELETE("/api/v1/session/:sessionId", r.discard)
	r.router = router
	return r
}

// Router returns the underlying httprouter, for embedding in another server.
func (r *Rest) Router() *httprouter.Router {
	return r.router
}

// Start begins serving in the background.
func (r *Rest) Start() error {
	r.server = &http.Server{Addr: r.Server, Handler: r.router}
	go func() {
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Printf("rest endpoint error: %s", err.Error())
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (r *Rest) Stop() {
	if r.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.server.Shutdown(ctx)
}

func (r *Rest) startFlow(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	category := params.ByName("category")
	sessionID, step, err := r.pool.StartFlow(category)
	if err != nil {
		r.writeError(w, http.StatusNotFound, err)
		return
	}
	r.writeJson(w, http.StatusOK, &StartResponse{SessionID: sessionID, StepResult: step})
}

func (r *Rest) sessionState(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	session, ok := r.pool.Session(params.ByName("sessionId"))
	if !ok {
		r.writeError(w, http.StatusNotFound, errors.New("unknown session"))
		return
	}
	snapshot := map[string]interface{}{
		"sessionId": session.ID(),
		"category":  session.Category(),
		"state":     session.State(),
		"answers":   session.Answers(),
	}
	if q := session.CurrentQuestion(); q != nil {
		snapshot["question"] = q
	}
	r.writeJson(w, http.StatusOK, snapshot)
}

func (r *Rest) answer(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err)
		return
	}
	var answerReq AnswerRequest
	if err := json.Unmarshal(body, &answerReq); err != nil {
		r.writeError(w, http.StatusBadRequest, err)
		return
	}
	step, err := r.pool.Answer(params.ByName("sessionId"), answerReq.QuestionID, answerReq.Value)
	if err != nil {
		r.writeStepError(w, err)
		return
	}
	r.writeJson(w, http.StatusOK, step)
}

func (r *Rest) back(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	step, err := r.pool.Back(params.ByName("sessionId"))
	if err != nil {
		r.writeStepError(w, err)
		return
	}
	r.writeJson(w, http.StatusOK, step)
}

func (r *Rest) discard(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	r.pool.Discard(params.ByName("sessionId"))
	w.WriteHeader(http.StatusNoContent)
}

func (r *Rest) writeStepError(w http.ResponseWriter, err error) {
	switch {
	case types.IsValidationError(err):
		r.writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, types.ErrSessionFinished), errors.Is(err, types.ErrNotStarted):
		r.writeError(w, http.StatusConflict, err)
	default:
		r.writeError(w, http.StatusNotFound, err)
	}
}

func (r *Rest) writeError(w http.ResponseWriter, status int, err error) {
	r.writeJson(w, status, &ErrorResponse{Error: err.Error()})
}

func (r *Rest) writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(ContentTypeKey, JsonContextType)
	w.WriteHeader(status)
	if b, err := json.Marshal(body); err == nil {
		_, _ = w.Write(b)
	} else {
		r.logger.Printf("rest endpoint encode error: %s", err.Error())
	}
}
