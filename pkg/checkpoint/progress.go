package checkpoint

import (
	"fmt"
	"sync"
)

// Policy maps a completed position to the value that should be persisted
type Policy interface {
	Complete(position int) int
}

// Watermark advances to the first position that has not completed yet, so
// the saved value never skips an account that is still in flight.
type Watermark struct {
	next int
	done map[int]struct{}
}

// NewWatermark starts tracking at the resume offset
func NewWatermark(start int) *Watermark {
	return &Watermark{
		next: start,
		done: make(map[int]struct{}),
	}
}

// Complete marks position as finished and returns the contiguous-prefix end
func (w *Watermark) Complete(position int) int {
	if position < w.next {
		return w.next
	}
	w.done[position] = struct{}{}
	for {
		if _, ok := w.done[w.next]; !ok {
			break
		}
		delete(w.done, w.next)
		w.next++
	}
	return w.next
}

// Pending returns how many completions are held back behind a gap
func (w *Watermark) Pending() int {
	return len(w.done)
}

// CompletionOrder persists whichever position finished last. The value can
// run ahead of unfinished accounts or fall behind finished ones.
type CompletionOrder struct{}

// Complete returns the slot after position
func (CompletionOrder) Complete(position int) int {
	return position + 1
}

// Saver is the persistence side of a Tracker
type Saver interface {
	Save(position int) error
}

// Recorder serializes completion reports from concurrent workers and writes
// the policy's value through to the Saver.
type Recorder struct {
	mu     sync.Mutex
	policy Policy
	saver  Saver
	last   int
	saved  bool
}

// NewRecorder wires a policy to a saver
func NewRecorder(policy Policy, saver Saver) *Recorder {
	return &Recorder{policy: policy, saver: saver}
}

// Record reports one finished query and persists the resulting position
func (r *Recorder) Record(position int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	value := r.policy.Complete(position)
	if r.saved && value == r.last {
		return nil
	}
	if err := r.saver.Save(value); err != nil {
		return fmt.Errorf("failed to record position %d: %w", position, err)
	}
	r.last = value
	r.saved = true
	return nil
}

// Last returns the most recently persisted value
func (r *Recorder) Last() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.saved
}
