package serial

// OpenMode selects the directions a device is opened for.
type OpenMode int

const (
	ModeRead OpenMode = 1 << iota
	ModeWrite

	ModeReadWrite = ModeRead | ModeWrite
)

func (m OpenMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeReadWrite:
		return "read-write"
	default:
		return "invalid"
	}
}

// FlushQueue selects which device queue a flush discards.
type FlushQueue int

const (
	FlushInput FlushQueue = iota
	FlushOutput
	FlushBoth
)

func (q FlushQueue) String() string {
	switch q {
	case FlushInput:
		return "input"
	case FlushOutput:
		return "output"
	case FlushBoth:
		return "input+output"
	default:
		return "invalid"
	}
}

// Device is the raw serial endpoint a Port drives. Handles are opaque
// integers owned by whoever called Open.
//
// Read and Write may transfer fewer bytes than requested without error.
// Read returning 0 bytes with a nil error means no data arrived within the
// VMIN/VTIME bounds. GetConfig reports the settings active on the device with
// no default sentinels; SetConfig receives a resolved Config.
type Device interface {
	Open(name string, mode OpenMode) (int, error)
	Close(fd int) error
	Read(fd int, p []byte) (int, error)
	Write(fd int, p []byte) (int, error)
	Available(fd int) (int, error)
	Flush(fd int, q FlushQueue) error
	Drain(fd int) error
	GetConfig(fd int) (Config, error)
	SetConfig(fd int, cfg Config) error
}
