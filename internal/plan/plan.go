// Package plan runs a sequence of generation requests described in YAML.
package plan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zarlcorp/zseed/internal/generate"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for a plan that cannot be run.
var ErrInvalid = errors.New("invalid plan")

// Step is one generation request.
type Step struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

// Plan is an ordered list of steps.
type Plan struct {
	Name            string `yaml:"name"`
	ContinueOnError bool   `yaml:"continue_on_error"`
	Steps           []Step `yaml:"steps"`
}

// Generator runs a single request.
type Generator interface {
	Generate(ctx context.Context, typ string, requested int) generate.Result
}

// Load decodes and validates a plan. Unknown fields are rejected.
func Load(r io.Reader) (Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Plan{}, fmt.Errorf("load plan: %w: empty document", ErrInvalid)
		}
		return Plan{}, fmt.Errorf("load plan: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Plan{}, fmt.Errorf("load plan: %w", err)
	}

	return p, nil
}

// Validate checks that the plan has steps and every step names a type.
// Counts are not checked here: they are clamped when the step runs.
func (p Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalid)
	}
	for i, s := range p.Steps {
		if strings.TrimSpace(s.Type) == "" {
			return fmt.Errorf("%w: step %d has no type", ErrInvalid, i+1)
		}
	}
	return nil
}

// Run executes the steps in order. It stops after the first failed step
// unless the plan continues on error, and returns the results of the steps
// that ran.
func Run(ctx context.Context, g Generator, p Plan) []generate.Result {
	results := make([]generate.Result, 0, len(p.Steps))

	for _, s := range p.Steps {
		if ctx.Err() != nil {
			break
		}

		res := g.Generate(ctx, strings.TrimSpace(s.Type), s.Count)
		results = append(results, res)

		if !res.OK() && !p.ContinueOnError {
			break
		}
	}

	return results
}

// Failed reports whether any result failed.
func Failed(results []generate.Result) bool {
	for _, r := range results {
		if !r.OK() {
			return true
		}
	}
	return false
}
