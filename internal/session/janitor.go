package session

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Sweeper drops expired sessions in bulk. Stores with native expiry (redis)
// do not need one.
type Sweeper interface {
	Sweep() int
}

// Janitor periodically sweeps a store until stopped.
type Janitor struct {
	store    Sweeper
	interval time.Duration
	logger   *log.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewJanitor creates a janitor; a non-positive interval falls back to five minutes.
func NewJanitor(s Sweeper, interval time.Duration, logger *log.Logger) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Janitor{store: s, interval: interval, logger: logger}
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	go j.loop(j.stopCh, j.doneCh)
}

// Stop halts the loop and waits for it to exit.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stopCh)
	done := j.doneCh
	j.mu.Unlock()
	<-done
}

func (j *Janitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := j.store.Sweep(); n > 0 {
				j.logger.WithField("expired", n).Debug("session.sweep")
			}
		}
	}
}
