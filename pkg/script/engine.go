// Package script provides the checker's Lisp evaluation surface. It wraps
// zygomys in a sandboxed environment so integration scripts can load a
// module description, print its summary, and run FK queries without
// recompiling the checker.
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/ubotlab/ubot/pkg/spec"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Result bundles the output of one script evaluation.
type Result struct {
	// Output collects the lines the reporting builtins emitted, in order.
	Output []string
	// Module is the spec left loaded when the script finished, if any.
	Module *spec.ModuleSpec
}

// Engine wraps the zygomys interpreter for checker scripts. It is safe for
// concurrent use; each call to Evaluate creates a fresh sandboxed
// environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	// preload, when set, is installed as the session module before the
	// script runs, so scripts can query without calling load-module.
	preload *spec.ModuleSpec
}

// NewEngine creates an Engine with no module loaded.
func NewEngine() *Engine {
	return &Engine{}
}

// NewEngineWith creates an Engine whose sessions start with m loaded.
func NewEngineWith(m *spec.ModuleSpec) *Engine {
	return &Engine{preload: m}
}

// Evaluate runs a checker script and returns its result.
//
// Return semantics:
//   - On success: result + nil errors + nil error
//   - On parse/eval failure in the script: nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Result, []EvalError, error) {
	sess := &session{module: e.preload}

	// Empty source is a valid script that does nothing.
	if strings.TrimSpace(source) == "" {
		return sess.result(), nil, nil
	}

	// Sandbox mode keeps user scripts away from the filesystem and
	// syscalls; only the registered builtins touch the outside world.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, sess)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygoError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygoError(err), nil
	}

	return sess.result(), nil, nil
}

// session is the mutable state one evaluation operates on.
type session struct {
	module *spec.ModuleSpec
	output []string
}

func (s *session) printf(format string, args ...interface{}) {
	s.output = append(s.output, fmt.Sprintf(format, args...))
}

func (s *session) result() *Result {
	return &Result{Output: s.output, Module: s.module}
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygoError converts a zygomys error into one or more EvalError values,
// extracting line numbers from the message where possible.
func parseZygoError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
