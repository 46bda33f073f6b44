// Package audio wraps PortAudio streams to stand in for the PDM capture and
// standard serial-audio playback hardware channels spec.md treats as
// opaque external collaborators. It exists so the pipeline can run on a
// development host; embedded bindings would replace this package entirely
// without touching internal/capture, internal/detect, or internal/playback.
package audio

import "github.com/gordonklaus/portaudio"

// CaptureChannel is the opaque mic-read channel the capture loop depends
// on. Read either fills buf or returns an error; the caller treats an error
// as transient.
type CaptureChannel interface {
	Read(buf []int16) error
	Stop() error
	Close() error
}

// PlaybackChannel is the opaque output-write channel the playback loop
// depends on. Write blocks until the hardware has accepted the full buffer.
type PlaybackChannel interface {
	Write(buf []int32) error
	Stop() error
	Close() error
}

// paStream abstracts the subset of *portaudio.Stream used here, so tests can
// substitute a mock without opening real hardware.
type paStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
	Write() error
}

// Capture is a PortAudio-backed CaptureChannel delivering mono int16 frames
// at the configured sample rate.
type Capture struct {
	stream paStream
	buf    []int16
}

// OpenCapture opens a PortAudio input stream on the given device (or the
// default device when deviceID < 0) at sampleRate, frameSize samples per
// callback, mono.
func OpenCapture(deviceID, sampleRate, frameSize int) (*Capture, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	dev, err := resolveDevice(devices, deviceID, portaudio.DefaultInputDevice)
	if err != nil {
		return nil, err
	}

	buf := make([]int16, frameSize)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: frameSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}
	return &Capture{stream: stream, buf: buf}, nil
}

// Read blocks until frameSize samples have been captured, copying them into
// buf (which must be len(buf) == frameSize).
func (c *Capture) Read(buf []int16) error {
	if err := c.stream.Read(); err != nil {
		return err
	}
	copy(buf, c.buf)
	return nil
}

// Stop halts the underlying stream, unblocking any in-flight Read.
func (c *Capture) Stop() error { return c.stream.Stop() }

// Close releases the underlying stream. Stop must be called first and any
// goroutine calling Read must have returned.
func (c *Capture) Close() error { return c.stream.Close() }

// Playback is a PortAudio-backed PlaybackChannel accepting 32-bit
// MSB-aligned mono frames.
type Playback struct {
	stream paStream
	buf    []int32
}

// OpenPlayback opens a PortAudio output stream on the given device (or the
// default device when deviceID < 0) at sampleRate, frameSize samples per
// callback, mono, 32-bit slots.
func OpenPlayback(deviceID, sampleRate, frameSize int) (*Playback, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	dev, err := resolveDevice(devices, deviceID, portaudio.DefaultOutputDevice)
	if err != nil {
		return nil, err
	}

	buf := make([]int32, frameSize)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: frameSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}
	return &Playback{stream: stream, buf: buf}, nil
}

// Write blocks until buf (32-bit MSB-aligned samples, len == frameSize) has
// been accepted by the output hardware.
func (p *Playback) Write(buf []int32) error {
	copy(p.buf, buf)
	return p.stream.Write()
}

// Stop halts the underlying stream, unblocking any in-flight Write.
func (p *Playback) Stop() error { return p.stream.Stop() }

// Close releases the underlying stream. Stop must be called first.
func (p *Playback) Close() error { return p.stream.Close() }

func resolveDevice(devices []*portaudio.DeviceInfo, idx int, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return fallback()
}

// Init initializes the PortAudio library; call once at process start before
// opening any stream.
func Init() error { return portaudio.Initialize() }

// Terminate releases PortAudio library resources; call once at process
// shutdown after all streams are closed.
func Terminate() error { return portaudio.Terminate() }
