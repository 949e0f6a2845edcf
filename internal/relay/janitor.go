package relay

import (
	"log"
	"time"
)

// Janitor evicts rooms that have sat with zero members for longer than the
// grace period. Rooms are created implicitly on join and never destroyed by
// the relay itself, so without the sweep a long-lived process accumulates
// empty rooms and their snapshots indefinitely.
type Janitor struct {
	relay    *Relay
	grace    time.Duration
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewJanitor(r *Relay, grace time.Duration) *Janitor {
	interval := grace / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &Janitor{
		relay:    r,
		grace:    grace,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start spawns the sweep loop.
func (j *Janitor) Start() {
	go j.loop()
}

// Stop terminates the sweep loop and waits for it to exit.
func (j *Janitor) Stop() {
	close(j.stop)
	<-j.done
}

func (j *Janitor) loop() {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.Sweep(time.Now())
		case <-j.stop:
			return
		}
	}
}

// Sweep runs one eviction pass as of the given time.
func (j *Janitor) Sweep(now time.Time) {
	evicted := j.relay.sweepIdle(now.Add(-j.grace))
	for _, roomID := range evicted {
		log.Printf("relay: evicted idle room %s", roomID)
	}
}
