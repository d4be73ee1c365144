package minimax

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type (
	// Resolver is what factories receive to resolve their own dependencies.
	Resolver interface {
		ResolveAny(id Identifier) (AnyHandle, error)
	}

	// MultiResolver also resolves every descriptor registered under an identifier.
	MultiResolver interface {
		Resolver
		ResolveAllAny(id Identifier) ([]AnyHandle, error)
	}

	// Provider answers lookups from a built Registry and owns the singleton
	// cache. A Provider is safe for concurrent use.
	Provider struct {
		id       uuid.UUID
		registry *Registry
		cache    *singletonCache
		logger   zerolog.Logger
		metrics  *Metrics
		closed   atomic.Bool
	}
)

var _ MultiResolver = (*Provider)(nil)

func newProvider(registry *Registry, logger zerolog.Logger, metrics *Metrics) *Provider {
	id := uuid.New()
	return &Provider{
		id:       id,
		registry: registry,
		cache:    newSingletonCache(),
		logger:   logger.With().Str("provider", id.String()).Logger(),
		metrics:  metrics,
	}
}

// ID identifies this provider instance in logs.
func (p *Provider) ID() string {
	return p.id.String()
}

// ResolveAny resolves id using the first descriptor registered for it.
//
// Singletons are served from the cache when present. Otherwise the factory is
// invoked outside of any lock, with p as its Resolver, and for singletons the
// result is inserted unless a concurrent resolution cached one first, in
// which case the freshly built instance is released and the cached one is
// returned. A singleton factory may therefore run more than once under
// contention, but only one instance is ever cached.
//
// Scoped descriptors are built on every call, like transient ones.
func (p *Provider) ResolveAny(id Identifier) (AnyHandle, error) {
	if p.closed.Load() {
		return nil, ErrProviderClosed
	}

	descriptors := p.registry.Lookup(id)
	if len(descriptors) == 0 {
		p.metrics.resolved(id, outcomeNotFound)
		return nil, &ServiceNotFoundError{Identifier: id}
	}

	return p.instantiate(descriptors[0])
}

// ResolveAllAny resolves every descriptor registered under id, in
// registration order, each according to its own lifetime. Unknown
// identifiers give an empty result.
func (p *Provider) ResolveAllAny(id Identifier) ([]AnyHandle, error) {
	if p.closed.Load() {
		return nil, ErrProviderClosed
	}

	descriptors := p.registry.Lookup(id)
	handles := make([]AnyHandle, 0, len(descriptors))
	for _, d := range descriptors {
		h, err := p.instantiate(d)
		if err != nil {
			releaseAll(handles)
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (p *Provider) instantiate(d *Descriptor) (AnyHandle, error) {
	if d.lifetime == Singleton {
		if cached, found := p.cache.get(d.tag); found {
			p.metrics.resolved(d.identifier, outcomeCacheHit)
			return cached, nil
		}
	}

	logger := p.logger.With().
		Stringer("identifier", d.identifier).
		Stringer("lifetime", d.lifetime).
		Stringer("type", d.tag).
		Logger()
	logger.Debug().Msg("constructing service")

	start := time.Now()
	handle, err := d.construct(p)
	p.metrics.constructed(d.identifier, time.Since(start))
	if err != nil {
		p.metrics.resolved(d.identifier, outcomeFailed)
		logger.Debug().Err(err).Msg("service construction failed")
		return nil, &ConstructionFailedError{Identifier: d.identifier, Cause: err}
	}

	if d.lifetime != Singleton {
		p.metrics.resolved(d.identifier, outcomeConstructed)
		return handle, nil
	}

	winner, inserted, err := p.cache.putIfAbsent(d.tag, handle)
	if err != nil {
		if releaseErr := handle.Release(); releaseErr != nil {
			logger.Warn().Err(releaseErr).Msg("failed to release singleton built while closing")
		}
		return nil, err
	}
	if !inserted {
		p.metrics.discardedSingleton(d.identifier)
		logger.Debug().Msg("singleton was cached concurrently, discarding the new instance")
		if releaseErr := handle.Release(); releaseErr != nil {
			logger.Warn().Err(releaseErr).Msg("failed to release discarded singleton")
		}
	} else {
		p.metrics.singletonCached()
		logger.Debug().Msg("singleton cached")
	}

	p.metrics.resolved(d.identifier, outcomeConstructed)
	return winner, nil
}

// Close releases every cached singleton, closing the ones implementing
// io.Closer. Resolutions fail with ErrProviderClosed afterwards. Handles
// already given to callers stay usable until they are released.
func (p *Provider) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	released, err := p.cache.close()
	p.metrics.singletonsReleased(released)
	p.logger.Debug().Int("released", released).Msg("provider closed")
	if err != nil {
		return fmt.Errorf("failed to close provider %s:\n\t%w", p.id, err)
	}
	return nil
}

// Describe renders the registered descriptors and the cached singletons.
func (p *Provider) Describe() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("* Provider %s\n", p.id))
	b.WriteString("* Services:\n")
	for _, id := range p.registry.Identifiers() {
		b.WriteString(fmt.Sprintf("\t- %s\n", id))
		for idx, d := range p.registry.Lookup(id) {
			shadowed := ""
			if idx > 0 {
				shadowed = ", shadowed"
			}
			b.WriteString(fmt.Sprintf("\t\t%d. %s (%s%s)\n", idx+1, d.tag, d.lifetime, shadowed))
			if d.description != "" {
				b.WriteString(fmt.Sprintf("\t\t\tdescription: %s\n", d.description))
			}
			if len(d.dependencies) > 0 {
				b.WriteString(fmt.Sprintf("\t\t\tdependencies: %s\n", describeDependencies(d.dependencies)))
			}
		}
	}
	b.WriteString("* Cached singletons:\n")
	for _, tag := range p.cache.tags() {
		b.WriteString(fmt.Sprintf("\t- %s\n", tag))
	}
	return b.String()
}

func releaseAll(handles []AnyHandle) {
	for _, h := range handles {
		_ = h.Release()
	}
}
