// Package chain runs prompt steps one after another, feeding every step's output
// into the variables seen by the steps after it.
//
// A step's output is stored under the step's name, so the name is both the result
// key and the placeholder later templates use: a step named "intro" is read back
// as {intro}. Names are not required to be unique; a later step with the same name
// overwrites the earlier output in both the variables and the returned Results.
package chain

import (
	"errors"
	"fmt"
	"github.com/petrzlen/callchain-golang/pkg/agent"
	"github.com/petrzlen/callchain-golang/pkg/models"
	"github.com/petrzlen/callchain-golang/pkg/prompt"
	"github.com/rs/zerolog/log"
	"time"
)

type step struct {
	name      string
	generator agent.Generator
	template  prompt.Template
}

// Chain is an ordered list of steps. Build it with Step, then Run it as often as needed;
// Run never modifies the chain, so a fully built Chain can be shared between goroutines.
type Chain struct {
	steps []step
}

func New() *Chain {
	return &Chain{}
}

// Step appends a step and returns the chain so calls can be strung together.
// Both generator and template are required, Run rejects a step missing either.
func (c *Chain) Step(name string, generator agent.Generator, template prompt.Template) *Chain {
	c.steps = append(c.steps, step{name: name, generator: generator, template: template})
	return c
}

func (c *Chain) Len() int {
	return len(c.steps)
}

// ErrIncompleteStep is returned by Run, wrapped in a StepError, for a step added without a generator or template.
var ErrIncompleteStep = errors.New("step has no generator or template")

// StepError is a failed generation call or an incomplete step.
type StepError struct {
	Step  string
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes the steps in the order they were added. The first error stops the run
// and no results are returned; generation calls already made are not undone.
// Template errors come back wrapped with the step name, use errors.As to get the
// *prompt.MissingVariableError.
func (c *Chain) Run(vars map[string]string) (*Results, error) {
	scope := make(map[string]string, len(vars)+len(c.steps))
	for k, v := range vars {
		scope[k] = v
	}
	results := newResults(len(c.steps))

	for i, s := range c.steps {
		if s.generator == nil || s.template == nil {
			return nil, &StepError{Step: s.name, Index: i, Err: ErrIncompleteStep}
		}
	}

	runStart := time.Now()
	for i, s := range c.steps {
		trace := models.NewTrace("chain.run")

		promptText, err := s.template.Format(scope)
		if err != nil {
			return nil, fmt.Errorf("cannot format template for step %q: %w", s.name, err)
		}

		log.Debug().Int("index", i).Str("step", s.name).Int("prompt_length", len(promptText)).Msg("running chain step")
		output, err := s.generator.Generate(promptText)
		if err != nil {
			return nil, &StepError{Step: s.name, Index: i, Err: err}
		}

		results.set(s.name, output)
		scope[s.name] = output
		trace.Done("chain.step." + s.name)
	}

	log.Debug().Int("steps", len(c.steps)).Dur("time_elapsed", time.Since(runStart)).Msg("chain run finished")
	return results, nil
}
