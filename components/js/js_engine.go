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

// Package js executes the JavaScript bodies of script rules on pooled goja
// virtual machines. Scripts are compiled once per rule at questionnaire load
// and each execution is bounded by Config.ScriptMaxExecutionTime.
package js

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/questflow/questflow/api/types"
)

// GlobalKey exposes Config.Properties to scripts through the `global` variable.
const GlobalKey = "global"

// GojaJsEngine wraps a compiled script with a pool of goja runtimes.
type GojaJsEngine struct {
	vmPool   chan *goja.Runtime
	config   types.Config
	jsScript *goja.Program
	// fromVars is assigned once at construction and read-only afterwards.
	fromVars map[string]interface{}
}

// NewGojaJsEngine compiles jsScript and prepares the VM pool. fromVars are set
// on every runtime before the script runs.
func NewGojaJsEngine(config types.Config, jsScript string, fromVars map[string]interface{}) (*GojaJsEngine, error) {
	program, err := goja.Compile("", jsScript, true)
	if err != nil {
		return nil, err
	}
	engine := &GojaJsEngine{
		config:   config,
		jsScript: program,
		vmPool:   make(chan *goja.Runtime, 4),
		fromVars: fromVars,
	}
	// fail fast on scripts that break at first run
	vm, err := engine.newVm(config, fromVars)
	if err != nil {
		return nil, err
	}
	engine.vmPool <- vm
	return engine, nil
}

func (g *GojaJsEngine) newVm(config types.Config, fromVars map[string]interface{}) (*goja.Runtime, error) {
	vm := goja.New()
	for k, v := range fromVars {
		if err := vm.Set(k, v); err != nil {
			return nil, err
		}
	}
	if len(config.Properties.Values()) != 0 {
		if err := vm.Set(GlobalKey, config.Properties.Values()); err != nil {
			return nil, err
		}
	}
	for k, v := range config.Udf {
		if err := vm.Set(k, v); err != nil {
			config.Logger.Printf("set udf %s error: %s", k, err.Error())
		}
	}
	var timer *time.Timer
	if config.ScriptMaxExecutionTime > 0 {
		timer = g.startTimeout(vm)
	}
	_, err := vm.RunProgram(g.jsScript)
	g.stopTimeout(timer)
	if err != nil {
		return nil, err
	}
	return vm, nil
}

// Execute runs the named function with the given arguments and returns its
// exported result.
func (g *GojaJsEngine) Execute(functionName string, argumentList ...interface{}) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()

	vm, err := g.getVm()
	if err != nil {
		return nil, err
	}
	defer g.putVm(vm)

	var timer *time.Timer
	if g.config.ScriptMaxExecutionTime > 0 {
		timer = g.startTimeout(vm)
		defer g.stopTimeout(timer)
	}

	f, ok := goja.AssertFunction(vm.Get(functionName))
	if !ok {
		return nil, errors.New(functionName + " is not a function")
	}
	params := make([]goja.Value, len(argumentList))
	for i, v := range argumentList {
		params[i] = vm.ToValue(v)
	}
	res, err := f(goja.Undefined(), params...)
	if err != nil {
		return nil, err
	}
	return res.Export(), nil
}

// Stop releases the pooled runtimes.
func (g *GojaJsEngine) Stop() {
	for {
		select {
		case <-g.vmPool:
		default:
			return
		}
	}
}

func (g *GojaJsEngine) getVm() (*goja.Runtime, error) {
	select {
	case vm := <-g.vmPool:
		return vm, nil
	default:
		return g.newVm(g.config, g.fromVars)
	}
}

func (g *GojaJsEngine) putVm(vm *goja.Runtime) {
	vm.ClearInterrupt()
	select {
	case g.vmPool <- vm:
	default:
	}
}

func (g *GojaJsEngine) startTimeout(vm *goja.Runtime) *time.Timer {
	return time.AfterFunc(g.config.ScriptMaxExecutionTime, func() {
		vm.Interrupt("execution timeout")
	})
}

func (g *GojaJsEngine) stopTimeout(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}
