package serial

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// errSetWhileClosed is returned by setters on a closed port. It matches
// both ErrConfiguration and ErrNotOpen.
var errSetWhileClosed = fmt.Errorf("%w: %w", ErrConfiguration, ErrNotOpen)

// Port is an unbuffered byte stream over a serial Device.
//
// Every multi-byte request is turned directly into device transfers. The
// only state kept between calls is a single byte of lookahead, filled by
// PeekByte, PutBack or UnreadByte and drained by the next read.
//
// A Port exclusively owns its device handle and must not be copied. It is
// not safe for concurrent use; callers serialise access. The zero value is
// a closed port that opens through SystemDevice() and logs nothing.
type Port struct {
	mu   sync.Mutex
	dev  Device
	log  zerolog.Logger
	name string
	fd   int
	open bool

	managed bool // allocated by NewPort, so a finalizer may be attached

	slot lookahead // pushed back or peeked byte, consumed before any device read
	last lookahead // last byte delivered to the caller, for UnreadByte
}

// Ensure Port implements the stream interfaces at compile time
var (
	_ io.ReadWriteCloser = (*Port)(nil)
	_ io.ByteScanner     = (*Port)(nil)
	_ io.ByteWriter      = (*Port)(nil)
)

// PortOption customises a Port created with NewPort.
type PortOption func(*Port)

// WithDevice selects the Device the port drives. The default is SystemDevice().
func WithDevice(dev Device) PortOption {
	return func(p *Port) {
		p.dev = dev
	}
}

// WithLogger sets the logger used for port lifecycle events.
func WithLogger(logger zerolog.Logger) PortOption {
	return func(p *Port) {
		p.log = logger
	}
}

// NewPort returns a closed port.
func NewPort(opts ...PortOption) *Port {
	p := &Port{
		dev: SystemDevice(),
		log: zerolog.Nop(),
		fd:  -1,

		managed: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open opens a serial device for reading and writing with the given options
func Open(name string, opts ...Option) (*Port, error) {
	p := NewPort()
	if err := p.Open(name, ModeReadWrite, opts...); err != nil {
		return nil, err
	}
	return p, nil
}

// Open acquires the named device and applies the configuration built from
// opts. Line parameters not set by opts fall back to BaselineConfig. On any
// failure the handle is released and the port stays closed.
func (p *Port) Open(name string, mode OpenMode, opts ...Option) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		return fmt.Errorf("%w: %s: port already open on %s", ErrOpen, name, p.name)
	}

	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return err
		}
	}
	config = config.Resolve()

	if p.dev == nil {
		p.dev = SystemDevice()
	}
	fd, err := p.dev.Open(name, mode)
	if err != nil {
		return wrapErr(ErrOpen, name, err)
	}
	defer func() {
		if err != nil {
			if cerr := p.dev.Close(fd); cerr != nil {
				p.log.Warn().Err(cerr).Str("device", name).Msg("release after failed open")
			}
		}
	}()

	if err := p.dev.SetConfig(fd, config); err != nil {
		return wrapErr(ErrConfiguration, "apply configuration", err)
	}

	p.name = name
	p.fd = fd
	p.open = true
	p.slot.reset()
	p.last.reset()
	if p.managed {
		runtime.SetFinalizer(p, (*Port).Close)
	}

	p.log.Debug().
		Str("device", name).
		Stringer("mode", mode).
		Stringer("config", config).
		Msg("serial port opened")
	return nil
}

// Close releases the device handle and discards any pending lookahead byte.
// It never fails and may be called any number of times.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil
	}

	if err := p.dev.Close(p.fd); err != nil {
		p.log.Warn().Err(err).Str("device", p.name).Msg("device close failed")
	}

	p.open = false
	p.fd = -1
	p.slot.reset()
	p.last.reset()
	if p.managed {
		runtime.SetFinalizer(p, nil)
	}

	p.log.Debug().Str("device", p.name).Msg("serial port closed")
	return nil
}

// IsOpen reports whether the port holds an open device handle
func (p *Port) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Name returns the identifier the port was last opened with
func (p *Port) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// GetFileDescriptor returns the raw device handle, or -1 when closed.
// Ownership stays with the port: never close the returned descriptor.
func (p *Port) GetFileDescriptor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return -1
	}
	return p.fd
}

// Write writes all of data, issuing as many raw writes as short writes
// require. The returned count is exactly the number of bytes handed to the
// device, and is less than len(data) only together with an error.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return 0, ErrNotOpen
	}
	return p.write(data)
}

// WriteByte writes a single byte to the device immediately
func (p *Port) WriteByte(c byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return ErrNotOpen
	}
	_, err := p.write([]byte{c})
	return err
}

func (p *Port) write(data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := p.dev.Write(p.fd, data[written:])
		if n > 0 {
			written += n
		}
		if err != nil {
			return written, wrapErr(ErrWrite, p.name, err)
		}
		if n <= 0 {
			return written, fmt.Errorf("%w: %s: %w", ErrWrite, p.name, io.ErrShortWrite)
		}
	}
	return written, nil
}

// Read fills buf from the lookahead byte and the device. It blocks at most
// once, as the device's VMIN/VTIME settings dictate, and only when nothing
// has been delivered yet; after that it keeps reading only while the device
// reports bytes ready. A timeout with no data returns 0 and a nil error.
func (p *Port) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return 0, ErrNotOpen
	}
	if len(buf) == 0 {
		return 0, nil
	}

	n := 0
	if c, ok := p.slot.take(); ok {
		buf[0] = c
		n = 1
	} else {
		m, err := p.rawRead(buf)
		if err != nil {
			p.remember(buf[:m])
			return m, err
		}
		if m == 0 {
			return 0, nil
		}
		n = m
	}

	for n < len(buf) {
		avail, err := p.dev.Available(p.fd)
		if err != nil {
			p.log.Debug().Err(err).Str("device", p.name).Msg("probe during read failed")
			break
		}
		if avail <= 0 {
			break
		}
		m, err := p.rawRead(buf[n:])
		n += m
		if err != nil {
			p.remember(buf[:n])
			return n, err
		}
		if m == 0 {
			break
		}
	}

	p.remember(buf[:n])
	return n, nil
}

func (p *Port) rawRead(buf []byte) (int, error) {
	n, err := p.dev.Read(p.fd, buf)
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, wrapErr(ErrRead, p.name, err)
	}
	return n, nil
}

func (p *Port) remember(delivered []byte) {
	if len(delivered) > 0 {
		p.last.reset()
		p.last.put(delivered[len(delivered)-1])
	}
}

// ReadByte consumes and returns the next byte. It returns io.EOF when the
// device delivers nothing within its VMIN/VTIME bounds.
func (p *Port) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return 0, ErrNotOpen
	}
	c, err := p.nextByte()
	if err != nil {
		return 0, err
	}
	p.remember([]byte{c})
	return c, nil
}

// PeekByte returns the next byte without consuming it; the following read
// delivers it again. It returns io.EOF when no byte arrives.
func (p *Port) PeekByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return 0, ErrNotOpen
	}
	if c, ok := p.slot.peek(); ok {
		return c, nil
	}
	c, err := p.nextByte()
	if err != nil {
		return 0, err
	}
	p.slot.put(c)
	return c, nil
}

func (p *Port) nextByte() (byte, error) {
	if c, ok := p.slot.take(); ok {
		return c, nil
	}
	var b [1]byte
	n, err := p.rawRead(b[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return b[0], nil
}

// PutBack pushes c back so the next read returns it before any device data.
// Only one byte can be pending; a second PutBack before it is consumed
// fails with ErrPutback and leaves the pending byte intact.
func (p *Port) PutBack(c byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return ErrNotOpen
	}
	if !p.slot.put(c) {
		p.log.Debug().Str("device", p.name).Msg("putback rejected: byte already pending")
		return fmt.Errorf("%w: a byte is already pending", ErrPutback)
	}
	p.last.reset()
	return nil
}

// UnreadByte pushes back the last byte delivered by Read or ReadByte.
func (p *Port) UnreadByte() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return ErrNotOpen
	}
	c, ok := p.last.peek()
	if !ok {
		return fmt.Errorf("%w: no byte to unread", ErrPutback)
	}
	if !p.slot.put(c) {
		return fmt.Errorf("%w: a byte is already pending", ErrPutback)
	}
	p.last.reset()
	return nil
}

// Available returns how many bytes can be read without blocking,
// counting a pending lookahead byte.
func (p *Port) Available() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return 0, ErrNotOpen
	}
	n, err := p.dev.Available(p.fd)
	if err != nil {
		return 0, wrapErr(ErrProbe, p.name, err)
	}
	if n < 0 {
		n = 0
	}
	if _, ok := p.slot.peek(); ok {
		n++
	}
	return n, nil
}

// IsDataAvailable reports whether a read would return data without blocking
func (p *Port) IsDataAvailable() (bool, error) {
	n, err := p.Available()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FlushInputBuffer discards unread input, including a pending lookahead byte
func (p *Port) FlushInputBuffer() error {
	return p.flush(FlushInput)
}

// FlushOutputBuffer discards output not yet transmitted
func (p *Port) FlushOutputBuffer() error {
	return p.flush(FlushOutput)
}

// FlushIOBuffers discards both unread input and untransmitted output
func (p *Port) FlushIOBuffers() error {
	return p.flush(FlushBoth)
}

func (p *Port) flush(q FlushQueue) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return ErrNotOpen
	}
	if q != FlushOutput {
		p.slot.reset()
		p.last.reset()
	}

	err := p.dev.Flush(p.fd, q)
	if err != nil && !errors.Is(err, ErrNothingToFlush) {
		return wrapErr(ErrFlush, "flush "+q.String(), err)
	}
	p.log.Debug().Str("device", p.name).Stringer("queue", q).Msg("flushed")
	return nil
}

// Drain waits until all output written to the port has been transmitted
func (p *Port) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return ErrNotOpen
	}
	if err := p.dev.Drain(p.fd); err != nil {
		return wrapErr(ErrWrite, "drain", err)
	}
	return nil
}
