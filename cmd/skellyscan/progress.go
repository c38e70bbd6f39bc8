package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter displays a single-line progress indicator with either
// elapsed or remaining seconds. Single-use: Start at most once, Stop
// exactly once. The caller must call Stop to terminate the internal
// goroutine.
type ProgressPrinter struct {
	prefix    string
	startTime time.Time
	ticker    atomic.Pointer[time.Ticker]
	stopChan  chan struct{}
	done      chan struct{}
	started   atomic.Bool
	countUp   bool
	duration  time.Duration
}

// NewProgressPrinter creates a progress printer that shows elapsed time.
func NewProgressPrinter(prefix string) *ProgressPrinter {
	return &ProgressPrinter{prefix: prefix, countUp: true}
}

// NewCountdownProgressPrinter creates a progress printer that counts
// down from duration to zero.
func NewCountdownProgressPrinter(prefix string, duration time.Duration) *ProgressPrinter {
	return &ProgressPrinter{prefix: prefix, duration: duration}
}

// Start begins displaying progress updates in a background goroutine.
// Panics when called more than once on the same instance.
func (p *ProgressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		panic("ProgressPrinter.Start called more than once")
	}

	p.done = make(chan struct{})
	p.stopChan = make(chan struct{})
	p.startTime = time.Now()
	ticker := time.NewTicker(progressUpdateInterval)
	p.ticker.Store(ticker)

	fmt.Printf("\r%s...   ", p.prefix)

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.stopChan:
				return
			case <-ticker.C:
				p.printProgress()
			}
		}
	}()
}

func (p *ProgressPrinter) printProgress() {
	elapsed := time.Since(p.startTime)
	if p.countUp {
		fmt.Printf("\r%s (%ds)   ", p.prefix, int(elapsed.Seconds()))
		return
	}
	remaining := p.duration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	// Round to the nearest whole second so the countdown lands on 0
	fmt.Printf("\r%s (%ds remaining)   ", p.prefix, int(remaining.Seconds()+0.5))
}

// Stop stops the progress display and clears the line. Safe to call
// multiple times and from multiple goroutines.
func (p *ProgressPrinter) Stop() {
	ticker := p.ticker.Swap(nil)
	if ticker == nil {
		return
	}

	ticker.Stop()
	close(p.stopChan)
	<-p.done

	fmt.Print(clearLineSequence)
}
