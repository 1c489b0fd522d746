// Package scoring combines signal inputs into a calibrated confidence and a
// de-vigged edge for each side of a market.
package scoring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/normalizer"
)

// GameContext is everything a component provider may look at when scoring
// one side of one market
type GameContext struct {
	Game    models.Game
	Market  models.MarketType
	Side    models.Side
	Quotes  *normalizer.MarketQuotes
	Signals *models.SignalBundle
	// FairProbability is the de-vigged probability of Side at the best prices
	FairProbability float64
}

// Line returns the best available line for the scored side
func (c GameContext) Line() (float64, bool) {
	best, ok := c.Quotes.BestPrice(c.Side)
	return best.LineValue, ok
}

// Provider is a named component scorer. Score returns a value the scorer
// clamps to the configured component cap before weighting.
type Provider interface {
	Name() string
	Score(ctx GameContext) float64
}

// ProviderFunc adapts a plain function to the Provider interface
type ProviderFunc struct {
	ProviderName string
	Fn           func(ctx GameContext) float64
}

// Name returns the provider name
func (p ProviderFunc) Name() string { return p.ProviderName }

// Score calls the wrapped function
func (p ProviderFunc) Score(ctx GameContext) float64 { return p.Fn(ctx) }

// Neutral always scores zero
type Neutral struct{}

// Name returns the provider name
func (Neutral) Name() string { return "neutral" }

// Score returns zero
func (Neutral) Score(GameContext) float64 { return 0 }

// Registry maps provider names to implementations
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider, replacing any provider with the same name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the named provider
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scoring provider %q", models.ErrInvalidConfig, name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
