package live

import (
	"sync"
	"time"
)

// Clock provides the monotonic audio timeline the scheduler plans against,
// in seconds. Injectable so scheduling is testable without a sound device.
type Clock interface {
	Now() float64
}

// SystemClock is the default monotonic clock.
type SystemClock struct {
	start time.Time
	once  sync.Once
}

// Now returns seconds elapsed since the clock was first read.
func (c *SystemClock) Now() float64 {
	c.once.Do(func() { c.start = time.Now() })
	return time.Since(c.start).Seconds()
}

// Output renders scheduled audio. Start begins playback of one PCM buffer at
// the given timeline position and must invoke onEnd exactly once when the
// buffer finishes naturally; the returned stop function cancels playback
// (after which onEnd must not fire).
type Output interface {
	Start(pcm []byte, startAt float64, onEnd func()) (stop func())
}

// Source is one in-flight scheduled buffer.
type Source struct {
	StartAt  float64
	Duration float64

	stop func()
}

// Scheduler queues decoded audio buffers for gapless sequential playback and
// cancels everything in flight on barge-in.
//
// Enqueue and Interrupt are serialized internally: server-event dispatch is
// single-threaded, but the output's end callbacks arrive from the audio
// device's own goroutine.
type Scheduler struct {
	clock Clock
	out   Output

	mu        sync.Mutex
	nextStart float64
	active    map[*Source]struct{}
	gen       uint64
}

// NewScheduler creates a scheduler planning against the given clock and
// rendering through the given output. The timeline starts at the clock's
// current position.
func NewScheduler(clock Clock, out Output) *Scheduler {
	return &Scheduler{
		clock:     clock,
		out:       out,
		nextStart: clock.Now(),
		active:    make(map[*Source]struct{}),
	}
}

// Enqueue schedules one block of 16-bit mono PCM at the output sample rate.
// The buffer starts at max(nextStartTime, now) so consecutive chunks play
// back to back without gaps, and never overlap.
func (s *Scheduler) Enqueue(pcm []byte) *Source {
	duration := float64(len(pcm)) / float64(OutputSampleRate*2)

	s.mu.Lock()
	startAt := s.nextStart
	if now := s.clock.Now(); now > startAt {
		startAt = now
	}
	src := &Source{StartAt: startAt, Duration: duration}
	s.nextStart = startAt + duration
	s.active[src] = struct{}{}
	gen := s.gen
	s.mu.Unlock()

	stop := s.out.Start(pcm, startAt, func() {
		s.mu.Lock()
		delete(s.active, src)
		s.mu.Unlock()
	})

	s.mu.Lock()
	if s.gen != gen {
		// Interrupted while the output was starting up; this source must
		// not outlive the barge-in.
		delete(s.active, src)
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		return src
	}
	src.stop = stop
	s.mu.Unlock()
	return src
}

// Interrupt stops every in-flight source, clears the active set, and resets
// the timeline so the next Enqueue schedules relative to the current clock
// position instead of a stale future timestamp.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	stopped := make([]*Source, 0, len(s.active))
	for src := range s.active {
		stopped = append(stopped, src)
	}
	s.active = make(map[*Source]struct{})
	s.nextStart = 0
	s.gen++
	s.mu.Unlock()

	for _, src := range stopped {
		if src.stop != nil {
			src.stop()
		}
	}
}

// ActiveCount returns the number of sources currently in flight.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// NextStartTime returns the timeline position the next buffer would start
// at, before clamping to the current clock position.
func (s *Scheduler) NextStartTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}
