// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package initializer

import "sync"

// ExperimentTracker holds the experiment and run that new resources are associated with.
//
// It is reset whenever the project or the location of its [Config] changes.
type ExperimentTracker struct {
	mu         sync.Mutex
	experiment string
	run        string
}

// Set records the current experiment and run.
func (t *ExperimentTracker) Set(experiment, run string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.experiment, t.run = experiment, run
}

// Current returns the current experiment and run.
func (t *ExperimentTracker) Current() (experiment, run string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.experiment, t.run
}

// Reset clears the tracker.
func (t *ExperimentTracker) Reset() {
	t.Set("", "")
}
