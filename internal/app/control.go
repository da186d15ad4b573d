package app

import (
	"sync"

	"github.com/vk/evogrid/internal/org"
)

// runControl is the orchestrator state the script surface delegates to.
type runControl struct {
	mu      sync.Mutex
	update  int
	verbose bool
	seed    int64
	exit    bool
}

func newRunControl(seed int64, verbose bool) *runControl {
	return &runControl{seed: seed, verbose: verbose}
}

// MoveOrgs transfers every organism from one population to another. The
// source is emptied afterwards; when clearDest is set the destination is
// emptied first.
func (c *runControl) MoveOrgs(from, to *org.Population, clearDest bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if clearDest {
		to.Clear()
	}
	for _, o := range from.Orgs() {
		if err := to.Inject(o); err != nil {
			return err
		}
	}
	from.Clear()
	return nil
}

func (c *runControl) RequestExit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exit = true
}

// ExitRequested reports whether any script asked for an orderly termination.
func (c *runControl) ExitRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exit
}

func (c *runControl) Update() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update
}

// AdvanceUpdate increments the update counter.
func (c *runControl) AdvanceUpdate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.update++
}

func (c *runControl) Verbose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verbose
}

func (c *runControl) RandomSeed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seed
}

func (c *runControl) SetRandomSeed(seed int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seed = seed
}
