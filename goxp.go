// Package goxp provides the expression core of an XPath 2.0 family
// query processor: a tokenizer, a typed expression tree, a static type
// checker that rewrites the tree, and a lazy iterator-based evaluator.
//
// The package deliberately stops at the expression level. Grammar and
// tree construction belong to a separate parser built on top of the
// tokenizer in pkg/tokenizer and the node constructors in pkg/expr.
//
// # Quick Start
//
//	// Type check once, evaluate many times
//	eng := goxp.New(goxp.WithCaching(true))
//	root, err := eng.Check(tree, types.AnySequence, nil)
//	items, _ := eng.Evaluate(ctx, root)
//
// # More Information
//
// For detailed documentation, see:
//   - Tokenizer: github.com/sandrolain/goxp/pkg/tokenizer
//   - Expression tree: github.com/sandrolain/goxp/pkg/expr
//   - Values: github.com/sandrolain/goxp/pkg/value
//   - Types: github.com/sandrolain/goxp/pkg/types
package goxp

import (
	"context"
	"log/slog"
	"time"

	"github.com/sandrolain/goxp/pkg/cache"
	"github.com/sandrolain/goxp/pkg/expr"
	"github.com/sandrolain/goxp/pkg/types"
)

// Version returns the current version of goxp.
func Version() string {
	return "v0.1.0-dev"
}

// Options configures engine behavior.
type Options struct {
	// Compatibility enables XPath 1.0 compatibility mode: sequences
	// truncate to their first item where one value is required, and
	// arithmetic over an empty operand yields NaN.
	Compatibility bool
	// Caching enables the checked-tree cache.
	Caching bool
	// CacheSize is the cache capacity when Caching is set.
	CacheSize int
	// Cache supplies an externally owned cache, overriding Caching.
	Cache *cache.Cache
	// ImplicitTimezone applies to date comparisons on values without an
	// explicit timezone. Defaults to UTC.
	ImplicitTimezone *time.Location
	// Debug enables debug logging of check and evaluation phases.
	Debug bool
	// Logger receives log output. Defaults to slog.Default().
	Logger *slog.Logger
	// Warn receives static warnings from the type checker. May be nil.
	Warn func(msg string)
}

// Option configures an Engine.
type Option func(*Options)

// WithCompatibilityMode enables XPath 1.0 compatibility mode.
func WithCompatibilityMode(enabled bool) Option {
	return func(o *Options) { o.Compatibility = enabled }
}

// WithCaching enables the checked-tree cache.
func WithCaching(enabled bool) Option {
	return func(o *Options) { o.Caching = enabled }
}

// WithCacheSize sets the cache capacity.
func WithCacheSize(size int) Option {
	return func(o *Options) { o.CacheSize = size }
}

// WithCache supplies an externally owned cache.
func WithCache(c *cache.Cache) Option {
	return func(o *Options) { o.Cache = c }
}

// WithImplicitTimezone sets the timezone applied to dates without one.
func WithImplicitTimezone(tz *time.Location) Option {
	return func(o *Options) { o.ImplicitTimezone = tz }
}

// WithDebug enables debug logging.
func WithDebug(enabled bool) Option {
	return func(o *Options) { o.Debug = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithWarningHandler sets the receiver for static type-check warnings.
func WithWarningHandler(warn func(msg string)) Option {
	return func(o *Options) { o.Warn = warn }
}

// Engine ties the pieces together: it type checks expression trees,
// optionally caches the checked result, and evaluates them lazily.
// Safe for concurrent use once constructed.
type Engine struct {
	opts    Options
	logger  *slog.Logger
	cache   *cache.Cache
	checker *expr.Checker
}

// New creates an engine.
func New(opts ...Option) *Engine {
	options := Options{
		ImplicitTimezone: time.UTC,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		size := options.CacheSize
		if size <= 0 {
			size = 256
		}
		c = cache.New(size)
	}

	return &Engine{
		opts:   options,
		logger: options.Logger,
		cache:  c,
		checker: &expr.Checker{
			Compat: options.Compatibility,
			Warn:   options.Warn,
		},
	}
}

// Cache returns the checked-tree cache, or nil if caching is disabled.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Check type checks a tree against the required type, returning the
// possibly rewritten tree. The result is context-free and may be shared
// across evaluations and goroutines.
func (e *Engine) Check(root expr.Expression, required types.SequenceType, role *types.Role) (expr.Expression, error) {
	if e.opts.Debug {
		e.logger.Debug("type checking expression",
			"required", required.String())
	}
	checked, err := e.checker.Check(root, required, role)
	if err != nil {
		if e.opts.Debug {
			e.logger.Debug("type check failed", "error", err)
		}
		return nil, err
	}
	return checked, nil
}

// CheckCached is Check with a cache lookup keyed by the caller-supplied
// key, typically the expression source text. Falls back to Check when
// caching is disabled.
func (e *Engine) CheckCached(key string, build func() (expr.Expression, error), required types.SequenceType) (expr.Expression, error) {
	if e.cache == nil {
		root, err := build()
		if err != nil {
			return nil, err
		}
		return e.Check(root, required, nil)
	}
	return e.cache.GetOrBuild(key, func() (expr.Expression, error) {
		root, err := build()
		if err != nil {
			return nil, err
		}
		return e.Check(root, required, nil)
	})
}

// Evaluate runs a checked tree to completion and returns the resulting
// items. Cancellation of ctx is observed between items.
func (e *Engine) Evaluate(ctx context.Context, root expr.Expression) ([]types.Item, error) {
	return e.EvaluateWith(ctx, root, e.newDynamicContext())
}

// EvaluateWith is Evaluate against a caller-prepared dynamic context,
// for embedders that bind variables or set a focus.
func (e *Engine) EvaluateWith(ctx context.Context, root expr.Expression, dyn *expr.Context) ([]types.Item, error) {
	it, err := e.iterate(ctx, root, dyn)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	return expr.Materialize(it)
}

// Iterate returns a lazy iterator over the tree's result sequence.
// Cancellation of ctx is observed on each step.
func (e *Engine) Iterate(ctx context.Context, root expr.Expression) (expr.SequenceIterator, error) {
	return e.iterate(ctx, root, e.newDynamicContext())
}

func (e *Engine) iterate(ctx context.Context, root expr.Expression, dyn *expr.Context) (expr.SequenceIterator, error) {
	if e.opts.Debug {
		e.logger.Debug("evaluating expression",
			"type", root.ItemType().String(),
			"cardinality", root.Cardinality().String())
	}
	it, err := root.Iterate(dyn)
	if err != nil {
		return nil, err
	}
	return &cancelIterator{ctx: ctx, base: it}, nil
}

func (e *Engine) newDynamicContext() *expr.Context {
	dyn := expr.NewContext(0)
	if e.opts.ImplicitTimezone != nil {
		dyn.SetImplicitTimezone(e.opts.ImplicitTimezone)
	}
	return dyn
}

// cancelIterator checks context cancellation on every step.
type cancelIterator struct {
	ctx  context.Context
	base expr.SequenceIterator
}

func (c *cancelIterator) Next() (types.Item, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}
	return c.base.Next()
}

func (c *cancelIterator) Current() types.Item { return c.base.Current() }
func (c *cancelIterator) Position() int       { return c.base.Position() }

func (c *cancelIterator) Clone() expr.SequenceIterator {
	return &cancelIterator{ctx: c.ctx, base: c.base.Clone()}
}

func (c *cancelIterator) Close() { c.base.Close() }
