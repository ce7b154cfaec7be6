package live

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Speaker renders scheduled PCM through the system audio device. It is the
// production Output: the scheduler hands it buffers in timeline order, and
// the device pulls them back to back, which keeps playback gapless without
// a second timing loop.
type Speaker struct {
	otoCtx *oto.Context
	player *oto.Player

	mu       sync.Mutex
	cond     *sync.Cond
	segments []*segment
	playing  bool
	closed   bool
}

type segment struct {
	data      []byte
	pos       int
	onEnd     func()
	cancelled bool
}

// oto allows exactly one context per process, so it is created on the first
// NewSpeaker and shared by every speaker after that. Only players are
// per-session.
var (
	otoNewContext = oto.NewContext

	otoInitOnce  sync.Once
	otoSharedCtx *oto.Context
	otoInitErr   error
)

func sharedOtoContext() (*oto.Context, error) {
	otoInitOnce.Do(func() {
		ctx, ready, err := otoNewContext(&oto.NewContextOptions{
			SampleRate:   OutputSampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   100 * time.Millisecond,
		})
		if err != nil {
			otoInitErr = err
			return
		}
		<-ready
		otoSharedCtx = ctx
	})
	return otoSharedCtx, otoInitErr
}

// NewSpeaker opens the output audio device at the model's output format
// (24 kHz mono 16-bit). The ~100ms device buffer trades a little latency
// for glitch-free playback.
func NewSpeaker() (*Speaker, error) {
	otoCtx, err := sharedOtoContext()
	if err != nil {
		return nil, err
	}

	s := &Speaker{otoCtx: otoCtx}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// Start implements Output. The startAt position is informational here; the
// scheduler enqueues in timeline order and the device consumes in order.
func (s *Speaker) Start(pcm []byte, startAt float64, onEnd func()) (stop func()) {
	seg := &segment{data: pcm, onEnd: onEnd}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.segments = append(s.segments, seg)
	if !s.playing {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
	s.mu.Unlock()
	s.cond.Signal()

	return func() {
		s.mu.Lock()
		seg.cancelled = true
		s.mu.Unlock()
	}
}

// Read implements io.Reader for the oto player, pulling queued segments in
// order. Cancelled segments are skipped without invoking their end callback.
func (s *Speaker) Read(p []byte) (int, error) {
	var ended []func()
	defer func() {
		for _, fn := range ended {
			if fn != nil {
				fn()
			}
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		// Drop cancelled segments from the head of the queue.
		for len(s.segments) > 0 && s.segments[0].cancelled {
			s.segments = s.segments[1:]
		}
		if len(s.segments) > 0 || s.closed {
			break
		}
		s.cond.Wait()
	}

	if s.closed && len(s.segments) == 0 {
		// Feed silence so the device drains without underrun noise.
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	n := 0
	for n < len(p) && len(s.segments) > 0 {
		seg := s.segments[0]
		if seg.cancelled {
			s.segments = s.segments[1:]
			continue
		}
		c := copy(p[n:], seg.data[seg.pos:])
		n += c
		seg.pos += c
		if seg.pos == len(seg.data) {
			ended = append(ended, seg.onEnd)
			s.segments = s.segments[1:]
		}
	}
	return n, nil
}

// Close releases the audio device. Safe to call more than once.
func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	player := s.player
	s.player = nil
	s.mu.Unlock()
	s.cond.Broadcast()

	if player != nil {
		_ = player.Close()
	}
	return nil
}
