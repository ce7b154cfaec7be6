package live

import (
	"sync"
)

// FrameBlockSize is the number of samples handed to the transport per
// encoded frame (~256 ms at the input rate).
const FrameBlockSize = 4096

// EncodedFrame is one microphone frame ready for the realtime connection.
type EncodedFrame struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// FrameSource abstracts the microphone device. Start begins delivering raw
// 16-bit mono PCM at the input sample rate through the callback; the
// callback runs on the device's own thread and must not block.
type FrameSource interface {
	Start(onData func(pcm []byte)) error
	Stop()
}

// Capture pulls fixed-size frames from a microphone source, encodes them and
// hands them to the transport's outbound send. The send must be
// fire-and-forget: capture never waits on the network, or device callbacks
// would glitch.
type Capture struct {
	source FrameSource
	send   func(EncodedFrame)

	mu      sync.Mutex
	pending []byte
	level   float64
	started bool

	stopOnce sync.Once
}

// NewCapture creates a pipeline reading from source and forwarding encoded
// frames through send.
func NewCapture(source FrameSource, send func(EncodedFrame)) *Capture {
	return &Capture{source: source, send: send}
}

// Start acquires the microphone and begins streaming frames. Device or
// permission failures are returned as-is from the source; no retry.
func (c *Capture) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	return c.source.Start(c.onData)
}

func (c *Capture) onData(pcm []byte) {
	frameBytes := FrameBlockSize * 2

	c.mu.Lock()
	c.pending = append(c.pending, pcm...)
	var frames [][]byte
	for len(c.pending) >= frameBytes {
		frame := make([]byte, frameBytes)
		copy(frame, c.pending[:frameBytes])
		c.pending = c.pending[frameBytes:]
		frames = append(frames, frame)
	}
	if len(frames) > 0 {
		c.level = RMSEnergy(frames[len(frames)-1])
	}
	c.mu.Unlock()

	for _, frame := range frames {
		c.send(EncodedFrame{
			Data:     EncodeFrame(BytesToSamples(frame)),
			MIMEType: InputMIMEType,
		})
	}
}

// Level returns the RMS energy of the most recent forwarded frame.
func (c *Capture) Level() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// Stop disconnects the source and releases the device. Safe to call more
// than once, and safe to call even if Start never completed.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() {
		c.source.Stop()
	})
}
