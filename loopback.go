package serial

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var errBadHandle = errors.New("loopback: bad handle")

// Loopback is an in-memory Device whose transmit line is wired to its own
// receive line: bytes written through any handle become readable through
// every handle. Raw reads honour VMIN/VTIME like a non-canonical tty.
//
// The exported fields inject faults and short transfers; set them before
// handing the Loopback to a Port. The zero value is ready to use and
// behaves like NewLoopback().
type Loopback struct {
	// Name, when set, is the only identifier Open accepts.
	Name string
	// Exclusive makes a second concurrent Open fail with ErrDeviceInUse.
	Exclusive bool
	// MaxTransfer caps the bytes moved by a single raw read or write (0 = no cap).
	MaxTransfer int
	// RejectBaudRates lists rates SetConfig refuses.
	RejectBaudRates []BaudRate

	OpenErr   error
	CloseErr  error
	ReadErr   error
	ProbeErr  error
	FlushErr  error
	ConfigErr error

	mu          sync.Mutex
	rx          []byte
	notify      chan struct{}
	cfg         Config
	handles     map[int]OpenMode
	nextFd      int
	writeErr    error
	failWrites  bool
	writeBudget int // bytes accepted before writeErr fires
	stats       LoopbackStats
}

// LoopbackStats counts raw calls made against a Loopback.
type LoopbackStats struct {
	Opens, Closes, Reads, Writes, Probes, Flushes, ConfigGets, ConfigSets int
	BytesWritten, BytesRead                                              int
}

// Ensure Loopback implements Device interface at compile time
var _ Device = (*Loopback)(nil)

// NewLoopback returns a loopback device starting at 9600 8N1 with VMIN=0, VTIME=0.
func NewLoopback() *Loopback {
	l := &Loopback{}
	l.lazyInit()
	return l
}

// lazyInit prepares a zero Loopback. It must be called with mu held.
func (l *Loopback) lazyInit() {
	if l.handles != nil {
		return
	}
	l.handles = make(map[int]OpenMode)
	l.notify = make(chan struct{})
	l.nextFd = 3
	if l.cfg == (Config{}) {
		l.cfg = Config{
			BaudRate:      Baud9600,
			CharacterSize: CharSize8,
			Parity:        ParityNone,
			StopBits:      StopBits1,
			FlowControl:   FlowControlNone,
		}
	}
}

// FailWritesAfter makes raw writes fail with err once n more bytes have
// been accepted. A write straddling the limit is cut short at the limit.
func (l *Loopback) FailWritesAfter(n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failWrites = true
	l.writeBudget = n
	l.writeErr = err
}

// Inject queues bytes as if they arrived from the remote end.
func (l *Loopback) Inject(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()
	l.appendRx(data)
}

// Pending returns how many received bytes are waiting to be read.
func (l *Loopback) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rx)
}

// OpenHandles returns the number of handles not yet closed.
func (l *Loopback) OpenHandles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handles)
}

// Stats returns a snapshot of the call counters.
func (l *Loopback) Stats() LoopbackStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// appendRx must be called with mu held.
func (l *Loopback) appendRx(data []byte) {
	if len(data) == 0 {
		return
	}
	l.rx = append(l.rx, data...)
	close(l.notify)
	l.notify = make(chan struct{})
}

func (l *Loopback) handle(fd int, need OpenMode) error {
	mode, ok := l.handles[fd]
	if !ok {
		return fmt.Errorf("%w %d", errBadHandle, fd)
	}
	if need != 0 && mode&need == 0 {
		return fmt.Errorf("loopback: handle %d not opened for %s", fd, need)
	}
	return nil
}

func (l *Loopback) Open(name string, mode OpenMode) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()

	l.stats.Opens++
	if l.OpenErr != nil {
		return -1, l.OpenErr
	}
	if l.Name != "" && name != l.Name {
		return -1, fmt.Errorf("%w: %s: %w", ErrOpen, name, ErrDeviceNotFound)
	}
	if mode&ModeReadWrite == 0 || mode&^ModeReadWrite != 0 {
		return -1, fmt.Errorf("%w: %s: invalid open mode %d", ErrOpen, name, int(mode))
	}
	if l.Exclusive && len(l.handles) > 0 {
		return -1, fmt.Errorf("%w: %s: %w", ErrOpen, name, ErrDeviceInUse)
	}

	fd := l.nextFd
	l.nextFd++
	l.handles[fd] = mode
	return fd, nil
}

func (l *Loopback) Close(fd int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()

	l.stats.Closes++
	if err := l.handle(fd, 0); err != nil {
		return err
	}
	delete(l.handles, fd)
	return l.CloseErr
}

func (l *Loopback) Read(fd int, p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()

	l.stats.Reads++
	if err := l.handle(fd, ModeRead); err != nil {
		return 0, err
	}
	if l.ReadErr != nil {
		return 0, l.ReadErr
	}
	if len(p) == 0 {
		return 0, nil
	}

	limit := len(p)
	if l.MaxTransfer > 0 && limit > l.MaxTransfer {
		limit = l.MaxTransfer
	}
	want := l.cfg.VMin
	if want > limit {
		want = limit
	}
	interByte := time.Duration(l.cfg.VTime) * 100 * time.Millisecond

	switch {
	case l.cfg.VMin == 0 && l.cfg.VTime == 0:
		// polling read
	case l.cfg.VMin == 0:
		l.waitFor(1, interByte)
	case l.cfg.VTime == 0:
		l.waitFor(want, 0)
	default:
		l.waitFor(1, 0)
		for len(l.rx) < want {
			before := len(l.rx)
			l.waitFor(before+1, interByte)
			if len(l.rx) == before {
				break
			}
		}
	}

	n := copy(p[:limit], l.rx)
	l.rx = l.rx[n:]
	l.stats.BytesRead += n
	return n, nil
}

// waitFor blocks until at least n bytes are queued or the timeout elapses.
// A zero timeout waits indefinitely. It must be called with mu held.
func (l *Loopback) waitFor(n int, timeout time.Duration) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for len(l.rx) < n {
		ch := l.notify
		l.mu.Unlock()
		select {
		case <-ch:
			l.mu.Lock()
		case <-expired:
			l.mu.Lock()
			return
		}
	}
}

func (l *Loopback) Write(fd int, p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()

	l.stats.Writes++
	if err := l.handle(fd, ModeWrite); err != nil {
		return 0, err
	}

	n := len(p)
	if l.MaxTransfer > 0 && n > l.MaxTransfer {
		n = l.MaxTransfer
	}
	if l.failWrites {
		if l.writeBudget == 0 {
			return 0, l.writeErr
		}
		if n > l.writeBudget {
			n = l.writeBudget
		}
		l.writeBudget -= n
	}

	l.appendRx(p[:n])
	l.stats.BytesWritten += n
	return n, nil
}

func (l *Loopback) Available(fd int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()

	l.stats.Probes++
	if err := l.handle(fd, 0); err != nil {
		return 0, err
	}
	if l.ProbeErr != nil {
		return 0, l.ProbeErr
	}
	return len(l.rx), nil
}

// Flush discards queued input. Output is delivered the moment it is
// written, so there is never output left to flush.
func (l *Loopback) Flush(fd int, q FlushQueue) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()

	l.stats.Flushes++
	if err := l.handle(fd, 0); err != nil {
		return err
	}
	if l.FlushErr != nil {
		return l.FlushErr
	}
	if q == FlushOutput || len(l.rx) == 0 {
		return ErrNothingToFlush
	}
	l.rx = nil
	return nil
}

func (l *Loopback) Drain(fd int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()
	return l.handle(fd, ModeWrite)
}

func (l *Loopback) GetConfig(fd int) (Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()

	l.stats.ConfigGets++
	if err := l.handle(fd, 0); err != nil {
		return Config{}, err
	}
	return l.cfg, nil
}

func (l *Loopback) SetConfig(fd int, cfg Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()

	l.stats.ConfigSets++
	if err := l.handle(fd, 0); err != nil {
		return err
	}
	if l.ConfigErr != nil {
		return l.ConfigErr
	}
	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, rate := range l.RejectBaudRates {
		if rate == cfg.BaudRate {
			return fmt.Errorf("%w: %d not supported by device", ErrInvalidBaudRate, int(rate))
		}
	}
	l.cfg = cfg
	return nil
}
