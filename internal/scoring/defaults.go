package scoring

import (
	"github.com/yourusername/clever-picks/internal/config"
)

// NewDefaultRegistry registers the built-in providers: neutral, situational
// and sharp_consensus
func NewDefaultRegistry(cfg config.ScoringConfig, isSharp func(bookID string) bool) *Registry {
	r := NewRegistry()
	r.Register(Neutral{})
	r.Register(&Situational{
		KeyNumbers:          cfg.KeyNumbers,
		PublicFadeThreshold: cfg.PublicFadeThreshold,
	})
	r.Register(&SharpConsensus{IsSharp: isSharp})
	return r
}
