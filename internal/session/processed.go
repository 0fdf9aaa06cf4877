package session

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/cryptox"
)

// DefaultProcessedTTL bounds how long a handled authorization code is remembered.
const DefaultProcessedTTL = 10 * time.Minute

// ProcessedCodes remembers authorization codes that have been handled so a
// repeated callback is a no-op. Codes are kept as fingerprints.
type ProcessedCodes struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewProcessedCodes creates an empty set. ttl <= 0 uses DefaultProcessedTTL.
func NewProcessedCodes(ttl time.Duration) *ProcessedCodes {
	if ttl <= 0 {
		ttl = DefaultProcessedTTL
	}
	return &ProcessedCodes{seen: make(map[string]time.Time), ttl: ttl}
}

// Mark records code at now and reports whether it was new.
func (p *ProcessedCodes) Mark(code string, now time.Time) bool {
	key := cryptox.FingerprintToken(code)

	p.mu.Lock()
	defer p.mu.Unlock()

	if at, ok := p.seen[key]; ok && now.Sub(at) < p.ttl {
		return false
	}
	p.seen[key] = now
	return true
}

// Prune forgets codes older than the TTL and returns how many were dropped.
func (p *ProcessedCodes) Prune(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for key, at := range p.seen {
		if now.Sub(at) >= p.ttl {
			delete(p.seen, key)
			n++
		}
	}
	return n
}

// Len reports how many codes are remembered.
func (p *ProcessedCodes) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}
