package server

import (
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog"
)

// Presence advertises the control server over mDNS. It implements the
// player's background-session lifecycle hook: EnsureActive registers
// at most once, repeat calls are no-ops, and a refused registration
// only degrades discovery.
type Presence struct {
	name   string
	port   int
	logger zerolog.Logger

	mu     sync.Mutex
	server *zeroconf.Server
	tried  bool
}

func NewPresence(name string, port int, logger zerolog.Logger) *Presence {
	return &Presence{name: name, port: port, logger: logger}
}

func (p *Presence) EnsureActive() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tried {
		return nil
	}
	p.tried = true

	srv, err := zeroconf.Register(p.name, "_resona._tcp", "local.", p.port, nil, nil)
	if err != nil {
		return fmt.Errorf("mdns register: %w", err)
	}
	p.server = srv
	p.logger.Info().Str("name", p.name).Int("port", p.port).Msg("mdns presence registered")
	return nil
}

func (p *Presence) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.server != nil {
		p.server.Shutdown()
		p.server = nil
	}
}
