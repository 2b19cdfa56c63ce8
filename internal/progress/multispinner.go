// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

/*
Package progress provides a CLI progress indicator with one labeled spinner
per pipeline.
*/
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var spinChars = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const tickInterval = 250 * time.Millisecond

// UpdateFunc reports a new status for the spinner with the given label.
type UpdateFunc func(label string, status string) error

type spinnerState struct {
	label       string
	status      string
	statusIsNew bool
	spinIndex   int
}

// MultiSpinner draws a set of labeled spinners. On a terminal the spinners are
// redrawn in place on every tick; otherwise only status changes are printed.
type MultiSpinner struct {
	mu       sync.Mutex
	out      io.Writer
	terminal bool
	spinners []spinnerState
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
	spinning bool
}

// NewMultiSpinner creates a MultiSpinner that draws to stderr.
func NewMultiSpinner() *MultiSpinner {
	return NewMultiSpinnerWriter(os.Stderr)
}

// NewMultiSpinnerWriter creates a MultiSpinner that draws to w.
func NewMultiSpinnerWriter(w io.Writer) *MultiSpinner {
	ms := &MultiSpinner{out: w}
	if f, ok := w.(*os.File); ok {
		ms.terminal = term.IsTerminal(int(f.Fd())) // #nosec G115
	}
	return ms
}

// AddSpinner adds a spinner. Labels must be unique.
func (ms *MultiSpinner) AddSpinner(label string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, spinner := range ms.spinners {
		if spinner.label == label {
			return fmt.Errorf("spinner with label %s already exists", label)
		}
	}
	ms.spinners = append(ms.spinners, spinnerState{label: label, status: "?"})
	return nil
}

// Start draws the spinners and keeps them turning until Finish is called.
func (ms *MultiSpinner) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.spinning {
		return
	}
	ms.draw(true)
	ms.ticker = time.NewTicker(tickInterval)
	ms.done = make(chan struct{})
	ms.stopped = make(chan struct{})
	ms.spinning = true
	go ms.onTick()
}

// Finish stops the spinners and draws their final status.
func (ms *MultiSpinner) Finish() {
	ms.mu.Lock()
	if !ms.spinning {
		ms.mu.Unlock()
		return
	}
	ms.ticker.Stop()
	close(ms.done)
	ms.spinning = false
	ms.mu.Unlock()
	<-ms.stopped
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.draw(false)
}

// Status updates the status of a spinner.
func (ms *MultiSpinner) Status(label string, status string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for i, spinner := range ms.spinners {
		if spinner.label == label {
			if status != spinner.status {
				ms.spinners[i].status = status
				ms.spinners[i].statusIsNew = true
			}
			return nil
		}
	}
	return fmt.Errorf("did not find spinner with label %s", label)
}

func (ms *MultiSpinner) onTick() {
	defer close(ms.stopped)
	for {
		select {
		case <-ms.done:
			return
		case <-ms.ticker.C:
			ms.mu.Lock()
			ms.draw(true)
			ms.mu.Unlock()
		}
	}
}

// draw must be called with mu held.
func (ms *MultiSpinner) draw(goUp bool) {
	for i, spinner := range ms.spinners {
		if !ms.terminal && !spinner.statusIsNew {
			continue
		}
		fmt.Fprintf(ms.out, "%-20s  %s  %-40s\n", spinner.label, spinChars[spinner.spinIndex], spinner.status)
		ms.spinners[i].statusIsNew = false
		ms.spinners[i].spinIndex = (spinner.spinIndex + 1) % len(spinChars)
	}
	if goUp && ms.terminal {
		for range ms.spinners {
			fmt.Fprint(ms.out, "\x1b[1A")
		}
	}
}
