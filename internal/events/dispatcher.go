// Package events carries store-mutation events from the write paths to their
// consumers. Handlers must be idempotent: delivery is at-least-once from the
// consumer's point of view (the process may replay an event after a crash by
// reprocessing the same write).
package events

import (
	"context"
	"log"
	"sync"

	"github.com/printready/proofdesk-backend/internal/repository"
)

// ProofStatusChange describes a status transition on a proof record. Old and
// new are both carried so consumers can apply the no-op guard themselves.
type ProofStatusChange struct {
	Proof     *repository.Proof
	OldStatus string
	NewStatus string
}

// SignedIn is emitted by the identity provider whenever a session
// authenticates, carrying the durable identifier and the account email.
type SignedIn struct {
	DurableID string
	Email     string
}

type Dispatcher struct {
	proofCreated  chan *repository.Proof
	statusChanged chan ProofStatusChange
	signedIn      chan SignedIn
	done          chan struct{}

	mu                    sync.RWMutex
	proofCreatedHandlers  []func(context.Context, *repository.Proof)
	statusChangedHandlers []func(context.Context, ProofStatusChange)
	signedInHandlers      []func(context.Context, SignedIn)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		proofCreated:  make(chan *repository.Proof, 256),
		statusChanged: make(chan ProofStatusChange, 256),
		signedIn:      make(chan SignedIn, 64),
		done:          make(chan struct{}),
	}
}

func (d *Dispatcher) OnProofCreated(fn func(context.Context, *repository.Proof)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.proofCreatedHandlers = append(d.proofCreatedHandlers, fn)
}

func (d *Dispatcher) OnProofStatusChanged(fn func(context.Context, ProofStatusChange)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusChangedHandlers = append(d.statusChangedHandlers, fn)
}

func (d *Dispatcher) OnSignedIn(fn func(context.Context, SignedIn)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signedInHandlers = append(d.signedInHandlers, fn)
}

func (d *Dispatcher) PublishProofCreated(p *repository.Proof) {
	select {
	case d.proofCreated <- p:
	default:
		log.Printf("[Events] ⚠️ proof-created queue full, dropping event for proof %s", p.ID)
	}
}

func (d *Dispatcher) PublishProofStatusChanged(ev ProofStatusChange) {
	select {
	case d.statusChanged <- ev:
	default:
		log.Printf("[Events] ⚠️ status-changed queue full, dropping event for proof %s", ev.Proof.ID)
	}
}

func (d *Dispatcher) PublishSignedIn(ev SignedIn) {
	select {
	case d.signedIn <- ev:
	default:
		log.Printf("[Events] ⚠️ signed-in queue full, dropping event for %s", ev.DurableID)
	}
}

// Run consumes events until Stop is called. Start it in its own goroutine.
func (d *Dispatcher) Run() {
	for {
		select {
		case p := <-d.proofCreated:
			d.mu.RLock()
			handlers := d.proofCreatedHandlers
			d.mu.RUnlock()
			for _, fn := range handlers {
				fn(context.Background(), p)
			}
		case ev := <-d.statusChanged:
			d.mu.RLock()
			handlers := d.statusChangedHandlers
			d.mu.RUnlock()
			for _, fn := range handlers {
				fn(context.Background(), ev)
			}
		case ev := <-d.signedIn:
			d.mu.RLock()
			handlers := d.signedInHandlers
			d.mu.RUnlock()
			for _, fn := range handlers {
				fn(context.Background(), ev)
			}
		case <-d.done:
			return
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.done)
}
