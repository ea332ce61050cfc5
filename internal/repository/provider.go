package repository

import (
	"context"
	"strings"
)

// Lifetime controls how long an in-memory user store lives.
type Lifetime string

const (
	// LifetimeSingleton shares one store across the whole process.
	LifetimeSingleton Lifetime = "Singleton"
	// LifetimeScoped creates one store per request scope.
	LifetimeScoped Lifetime = "Scoped"
	// LifetimeTransient creates a new store every time one is resolved.
	LifetimeTransient Lifetime = "Transient"
)

// ParseLifetime maps a case-insensitive name to a Lifetime. Unknown values yield LifetimeScoped.
func ParseLifetime(s string) Lifetime {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "singleton":
		return LifetimeSingleton
	case "transient":
		return LifetimeTransient
	default:
		return LifetimeScoped
	}
}

type scopeKey struct{}

type scope struct {
	users *MemoryUserRepository
}

// Provider hands out user stores according to the configured lifetime.
type Provider struct {
	lifetime  Lifetime
	singleton *MemoryUserRepository
}

// NewProvider builds a provider for the lifetime.
func NewProvider(lifetime Lifetime) *Provider {
	p := &Provider{lifetime: lifetime}
	if lifetime == LifetimeSingleton {
		p.singleton = NewMemoryUserRepository()
	}
	return p
}

// Lifetime returns the configured lifetime.
func (p *Provider) Lifetime() Lifetime {
	return p.lifetime
}

// WithScope opens a request scope on ctx.
func (p *Provider) WithScope(ctx context.Context) context.Context {
	if p.lifetime != LifetimeScoped {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &scope{users: NewMemoryUserRepository()})
}

// Resolve returns the store for ctx.
func (p *Provider) Resolve(ctx context.Context) UserRepository {
	switch p.lifetime {
	case LifetimeSingleton:
		return p.singleton
	case LifetimeScoped:
		if s, ok := ctx.Value(scopeKey{}).(*scope); ok {
			return s.users
		}
	}
	return NewMemoryUserRepository()
}

// Count reports how many users the process-wide store holds; -1 when stores are not shared.
func (p *Provider) Count() int {
	if p.singleton == nil {
		return -1
	}
	return p.singleton.Count()
}
