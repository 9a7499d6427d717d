package generate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/zarlcorp/zseed/internal/backend"
)

// Config is the explicit configuration of a generation run.
type Config struct {
	Limits                 map[string]Limits // per type, merged over DefaultLimits
	Threading              Threading         // defaults to site
	ImageSource            string            // remote image source, "none" disables
	NoImages               bool              // skip featured images regardless of source
	DefaultRole            string            // role for users, "" to ask the site
	DefaultCategory        int64             // category when the site has none
	DefaultProductCategory int64             // product category when the site has none
}

// Result reports one generation request.
type Result struct {
	Type        string `json:"type"`
	Requested   int    `json:"requested"`
	Count       int    `json:"count"`
	Code        string `json:"code,omitempty"`
	BackendCode string `json:"backend_code,omitempty"`
	Message     string `json:"message,omitempty"`
	Unknown     bool   `json:"unknown,omitempty"`
}

// OK reports whether the request ran to completion.
func (r Result) OK() bool {
	return r.Code == ""
}

// Summary returns a one-line human-readable summary.
func (r Result) Summary() string {
	if r.Unknown {
		return fmt.Sprintf("unknown type %q, nothing generated", r.Type)
	}

	label := inflection.Plural(r.Type)
	if r.Count == 1 {
		label = inflection.Singular(r.Type)
	}

	if r.OK() {
		return fmt.Sprintf("created %d %s", r.Count, label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "created %d %s before failing: %s", r.Count, label, r.Code)
	if r.BackendCode != "" {
		fmt.Fprintf(&b, " (%s)", r.BackendCode)
	}
	if r.Message != "" {
		fmt.Fprintf(&b, ": %s", r.Message)
	}
	return b.String()
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHooks installs record hooks on the built-in generators.
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) { o.env.hooks = h }
}

// Orchestrator dispatches requests to the generator registered for a type.
// It is not safe for concurrent use.
type Orchestrator struct {
	env        *env
	generators map[string]RecordGenerator
	order      []string
}

// New creates an orchestrator with the six built-in generators registered.
func New(cfg Config, deps Deps, opts ...Option) *Orchestrator {
	if cfg.Threading == "" {
		cfg.Threading = ThreadingSite
	}

	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	limits := DefaultLimits()
	for typ, l := range cfg.Limits {
		limits[typ] = l
	}
	cfg.Limits = limits

	o := &Orchestrator{
		env:        &env{cfg: cfg, deps: deps, log: deps.Log},
		generators: make(map[string]RecordGenerator),
	}
	for _, opt := range opts {
		opt(o)
	}

	e := o.env
	o.Register(TypePosts, newPosts(e, limits[TypePosts]))
	o.Register(TypeComments, newComments(e, limits[TypeComments]))
	o.Register(TypeUsers, newUsers(e, limits[TypeUsers]))
	o.Register(TypeProducts, newProducts(e, limits[TypeProducts]))
	o.Register(TypeCustomers, newCustomers(e, limits[TypeCustomers]))
	o.Register(TypeReviews, newReviews(e, limits[TypeReviews]))

	return o
}

// Register adds or replaces the generator for typ.
func (o *Orchestrator) Register(typ string, g RecordGenerator) {
	if _, ok := o.generators[typ]; !ok {
		o.order = append(o.order, typ)
	}
	o.generators[typ] = g
}

// Types lists registered type tags in registration order.
func (o *Orchestrator) Types() []string {
	return append([]string(nil), o.order...)
}

// Limits returns the limits of a registered type.
func (o *Orchestrator) Limits(typ string) (Limits, bool) {
	g, ok := o.generators[typ]
	if !ok {
		return Limits{}, false
	}
	return g.Limits(), true
}

// Generate runs one request. Unknown types are a no-op.
func (o *Orchestrator) Generate(ctx context.Context, typ string, requested int) Result {
	res := Result{Type: typ, Requested: requested}

	g, ok := o.generators[typ]
	if !ok {
		res.Unknown = true
		o.env.log.Debug().Str("type", typ).Msg("unknown type, skipping")
		return res
	}

	n := g.Limits().Clamp(requested)
	log := o.env.log.With().Str("type", typ).Int("requested", requested).Int("count", n).Logger()
	log.Info().Msg("generating")

	count, err := g.Generate(ctx, n)
	res.Count = count
	if err == nil {
		log.Info().Int("created", count).Msg("done")
		return res
	}

	res.Code, res.BackendCode = classify(err)
	res.Message = err.Error()
	log.Error().Err(err).Int("created", count).Str("code", res.Code).Msg("aborted")
	return res
}

// classify maps a generator error to a result code and, for store
// failures, the store's own code.
func classify(err error) (code, backendCode string) {
	var be *backend.Error
	if errors.As(err, &be) {
		backendCode = be.Code
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled, ""
	case errors.Is(err, ErrNoEligibleParents):
		return CodeNoEligibleParents, ""
	case errors.Is(err, ErrIdentitySynthesis):
		return CodeIdentitySynthesis, ""
	case errors.Is(err, ErrNoIdentifier):
		return CodeNoIdentifier, ""
	case errors.Is(err, ErrBackendFetch):
		return CodeBackendFetch, backendCode
	default:
		return CodeBackendInsert, backendCode
	}
}
