package host

import (
	"sync"

	"github.com/rs/zerolog"
)

// PromptFallback holds the manual-retry choice open for the embedding
// application. The controller hands it retry/give-up callbacks; the
// admin routes let a human fire one of them.
type PromptFallback struct {
	log zerolog.Logger

	mu     sync.Mutex
	retry  func()
	giveUp func()
}

func NewPromptFallback(logger zerolog.Logger) *PromptFallback {
	return &PromptFallback{log: logger}
}

func (p *PromptFallback) Present(retry func(), giveUp func()) {
	p.mu.Lock()
	p.retry = retry
	p.giveUp = giveUp
	p.mu.Unlock()
	p.log.Warn().Msg("host.fallback.pending: popup could not be confirmed, retry or give up via /sessions/retry | /sessions/giveup")
}

// Pending reports whether a fallback decision is waiting.
func (p *PromptFallback) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retry != nil || p.giveUp != nil
}

func (p *PromptFallback) Retry() bool {
	p.mu.Lock()
	fn := p.retry
	p.retry = nil
	p.giveUp = nil
	p.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (p *PromptFallback) GiveUp() bool {
	p.mu.Lock()
	fn := p.giveUp
	p.retry = nil
	p.giveUp = nil
	p.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}
