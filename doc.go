// Package serial provides an unbuffered byte stream over a Linux serial port.
//
// A Port turns every multi-byte read or write directly into device transfers.
// The only state it keeps between calls is one byte of lookahead, which makes
// single-byte peek and putback possible without an intermediate buffer. Line
// parameters are never cached: getters query the device and setters apply
// changes immediately.
//
// # Basic Usage
//
// Open a serial port with the baseline configuration (115200 8N1, no flow
// control, VMIN=1, VTIME=0):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	n, err := port.Write([]byte("Hello"))
//	buffer := make([]byte, 256)
//	n, err = port.Read(buffer)
//
// # Configuration Options
//
// Use functional options for custom configuration. Parameters left unset
// fall back to the baseline:
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(serial.Baud9600),
//	    serial.WithParity(serial.ParityEven),
//	    serial.WithStopBits(serial.StopBits2),
//	    serial.WithVMin(0),
//	    serial.WithReadTimeout(500*time.Millisecond),
//	)
//
// Parameters can be changed and queried while the port is open:
//
//	err = port.SetFlowControl(serial.FlowControlHardware)
//	rate, err := port.GetBaudRate()
//	err = port.SetDefaultSerialPortParameters()
//
// # Read Semantics
//
// Read blocks at most once, as VMIN and VTIME dictate, and then collects only
// what the device already holds. A timeout with no data yields 0 bytes and a
// nil error. ReadByte and PeekByte report io.EOF in that case.
//
//	c, err := port.PeekByte() // look without consuming
//	c, err = port.ReadByte()
//	err = port.PutBack(c)     // at most one byte may be pending
//	ok, err := port.IsDataAvailable()
//
// # Port Discovery
//
// List available serial ports and get USB device metadata:
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// # Modem Control Lines
//
// RTS, DTR and the input lines live outside the byte stream and are driven
// through the port's descriptor:
//
//	signals, err := serial.ReadModemSignals(port.GetFileDescriptor())
//	err = serial.SetDTR(port.GetFileDescriptor(), false)
//
// # Error Handling
//
// Every failure wraps one of the category errors, so callers can use
// errors.Is:
//
//	var (
//	    ErrNotOpen       // operation on a closed port
//	    ErrOpen          // device could not be acquired
//	    ErrConfiguration // line parameter rejected or unreadable
//	    ErrRead          // device read failed
//	    ErrWrite         // device write failed
//	    ErrProbe         // availability probe failed
//	    ErrPutback       // a byte is already pending
//	)
//
// # Testing
//
// NewLoopback returns an in-memory Device that echoes writes back as input
// and honours VMIN/VTIME. Pass it with WithDevice to exercise code without
// hardware:
//
//	dev := serial.NewLoopback()
//	port := serial.NewPort(serial.WithDevice(dev))
//	err := port.Open("loop", serial.ModeReadWrite)
package serial
