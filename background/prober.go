// Package background contains services that run independently of the HTTP
// request cycle. The health prober keeps the upstream client's liveness flag
// current so catalog reads and auth calls can pick their path without probing
// inline.
package background

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/lojinha-go/events"
	"github.com/user/lojinha-go/upstream"
)

// probeTimeout bounds a single health check independently of the interval.
const probeTimeout = 3 * time.Second

// Prober periodically checks backend health and flips the client's liveness
// flag. Transitions are announced on the event stream.
type Prober struct {
	client   *upstream.Client
	bus      *events.Broadcaster
	interval time.Duration
	logger   *zap.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewProber creates a health prober.
func NewProber(client *upstream.Client, bus *events.Broadcaster, interval time.Duration, logger *zap.Logger) *Prober {
	return &Prober{
		client:   client,
		bus:      bus,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the probe loop. The first probe runs immediately so startup
// does not wait a full interval to learn the backend state.
func (p *Prober) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.logger.Info("health prober starting", zap.Duration("interval", p.interval))

		p.probe()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.probe()
			case <-p.stopChan:
				p.logger.Info("health prober stopping")
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it.
func (p *Prober) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Prober) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	wasLive := p.client.Live()
	status, err := p.client.Health(ctx)
	up := err == nil && status != nil

	p.client.SetLive(up)

	switch {
	case up && !wasLive:
		p.logger.Info("backend is reachable", zap.String("status", status.Status))
		p.bus.Publish(events.NewEvent(events.TypeInfo, "Conexão com o servidor restabelecida"))
	case !up && wasLive:
		p.logger.Warn("backend is unreachable, switching to local data", zap.Error(err))
		p.bus.Publish(events.NewEvent(events.TypeError, "Servidor indisponível. Usando dados locais."))
	}
}
