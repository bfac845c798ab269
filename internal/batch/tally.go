package batch

import (
	"github.com/idelchi/gocryptor/internal/engine"
)

// Tally counts outcomes per status. The zero value is ready to use.
type Tally struct {
	counts map[engine.Status]int
}

// Add records one outcome with status s.
func (t *Tally) Add(s engine.Status) {
	if t.counts == nil {
		t.counts = make(map[engine.Status]int)
	}

	t.counts[s]++
}

// Count returns the number of outcomes recorded with status s.
func (t *Tally) Count(s engine.Status) int {
	return t.counts[s]
}

// Total returns the number of outcomes recorded.
func (t *Tally) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}

	return total
}

// Failed returns the number of outcomes that are not successes.
func (t *Tally) Failed() int {
	return t.Total() - t.Count(engine.StatusSuccess)
}
