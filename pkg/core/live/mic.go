package live

import (
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/halsning/halsning-go/pkg/core"
)

// MicSource is the malgo-backed microphone FrameSource. It captures 16-bit
// mono PCM at the input sample rate and copies each device buffer before
// handing it to the callback, since the device reuses its buffers.
type MicSource struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	closed bool
}

// NewMicSource initializes the audio backend. The device itself is not
// acquired until Start.
func NewMicSource() (*MicSource, error) {
	cfg := malgo.ContextConfig{}
	cfg.ThreadPriority = malgo.ThreadPriorityRealtime

	ctx, err := malgo.InitContext(nil, cfg, nil)
	if err != nil {
		return nil, core.NewPermissionError("no audio backend available: " + err.Error())
	}
	return &MicSource{ctx: ctx}, nil
}

// Start acquires the default capture device and begins delivering PCM.
// Failure to open or start the device maps to a permission error: the user
// declined access or no device exists, and the session attempt is terminal.
func (m *MicSource) Start(onData func(pcm []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return core.NewPermissionError("microphone source is closed")
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = InputSampleRate
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			onData(append([]byte(nil), pInputSamples...))
		},
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return core.NewPermissionError("open microphone: " + err.Error())
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return core.NewPermissionError("start microphone: " + err.Error())
	}
	m.device = device
	return nil
}

// Stop releases the device and the audio backend. Best effort and
// idempotent; release failures are swallowed.
func (m *MicSource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	_ = m.ctx.Uninit()
	m.ctx.Free()
}
