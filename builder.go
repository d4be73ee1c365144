package minimax

import (
	"fmt"

	"github.com/a-peyrard/minimax/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type (
	// Check validates a registry before it is built into a Provider.
	Check func(r *Registry) error

	BuildOptions struct {
		logger     zerolog.Logger
		registerer prometheus.Registerer
		namespace  string
		checks     []Check
	}
)

func WithLogger(logger zerolog.Logger) option.Option[BuildOptions] {
	return func(opts *BuildOptions) {
		opts.logger = logger
	}
}

// WithMetrics registers the provider metrics on reg.
func WithMetrics(reg prometheus.Registerer) option.Option[BuildOptions] {
	return func(opts *BuildOptions) {
		opts.registerer = reg
	}
}

func WithMetricsNamespace(namespace string) option.Option[BuildOptions] {
	return func(opts *BuildOptions) {
		opts.namespace = namespace
	}
}

// WithChecks runs the given checks on the registry during Build.
func WithChecks(checks ...Check) option.Option[BuildOptions] {
	return func(opts *BuildOptions) {
		opts.checks = append(opts.checks, checks...)
	}
}

// Build turns a registry into a Provider with an empty singleton cache.
//
// On success the registry is consumed: it cannot be registered into nor built
// again. With no checks configured, Build only fails when the registry was
// already built or when the metrics cannot be registered.
func Build(registry *Registry, opts ...option.Option[BuildOptions]) (*Provider, error) {
	options := option.Build(
		&BuildOptions{
			logger:    zerolog.Nop(),
			namespace: "minimax",
		},
		opts...,
	)

	if registry == nil {
		return nil, &BuildError{Problems: []error{fmt.Errorf("registry cannot be nil")}}
	}
	if registry.sealed {
		return nil, &BuildError{Problems: []error{ErrRegistryConsumed}}
	}

	var problems []error
	for _, check := range options.checks {
		if err := check(registry); err != nil {
			problems = append(problems, unwrapProblems(err)...)
		}
	}
	if len(problems) > 0 {
		return nil, &BuildError{Problems: problems}
	}

	var metrics *Metrics
	if options.registerer != nil {
		var err error
		metrics, err = NewMetrics(options.namespace).register(options.registerer)
		if err != nil {
			return nil, &BuildError{Problems: []error{fmt.Errorf("failed to register metrics:\n\t%w", err)}}
		}
	}

	if err := registry.seal(); err != nil {
		return nil, &BuildError{Problems: []error{err}}
	}

	p := newProvider(registry, options.logger, metrics)
	p.logger.Debug().
		Int("services", len(registry.order)).
		Int("descriptors", registry.Len()).
		Msg("provider built")

	return p, nil
}

func unwrapProblems(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
