package serial

import "fmt"

// Line parameters are never cached: every getter asks the device, and every
// single-field setter reads the active settings, changes one field and
// writes them back.

// GetConfig returns the line settings currently active on the device
func (p *Port) GetConfig() (Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return Config{}, ErrNotOpen
	}
	return p.getConfig()
}

func (p *Port) getConfig() (Config, error) {
	cfg, err := p.dev.GetConfig(p.fd)
	if err != nil {
		return Config{}, wrapErr(ErrConfiguration, "read configuration", err)
	}
	return cfg, nil
}

// SetConfig applies every field of cfg in a single device update. Default
// sentinels resolve to the baseline. The active settings are not read
// first, so this also recovers a device left in a state GetConfig cannot
// decode.
func (p *Port) SetConfig(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return errSetWhileClosed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return p.setConfig("configuration", cfg.Resolve())
}

// SetDefaultSerialPortParameters resets every line parameter to
// BaselineConfig in one device update.
func (p *Port) SetDefaultSerialPortParameters() error {
	return p.SetConfig(BaselineConfig())
}

// applyConfig changes one field of the active settings and writes them back.
func (p *Port) applyConfig(what string, change Option) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return errSetWhileClosed
	}

	cfg, err := p.getConfig()
	if err != nil {
		return err
	}
	if err := change(&cfg); err != nil {
		return err
	}
	return p.setConfig(what, cfg.Resolve())
}

func (p *Port) setConfig(what string, cfg Config) error {
	if err := p.dev.SetConfig(p.fd, cfg); err != nil {
		return wrapErr(ErrConfiguration, fmt.Sprintf("set %s", what), err)
	}

	p.log.Debug().Str("device", p.name).Stringer("config", cfg).Msgf("%s updated", what)
	return nil
}

// SetBaudRate sets the line speed
func (p *Port) SetBaudRate(rate BaudRate) error {
	return p.applyConfig("baud rate", WithBaudRate(rate))
}

// GetBaudRate returns the line speed active on the device
func (p *Port) GetBaudRate() (BaudRate, error) {
	cfg, err := p.GetConfig()
	if err != nil {
		return BaudDefault, err
	}
	return cfg.BaudRate, nil
}

// SetCharacterSize sets the number of data bits
func (p *Port) SetCharacterSize(size CharacterSize) error {
	return p.applyConfig("character size", WithCharacterSize(size))
}

// GetCharacterSize returns the number of data bits active on the device
func (p *Port) GetCharacterSize() (CharacterSize, error) {
	cfg, err := p.GetConfig()
	if err != nil {
		return CharSizeDefault, err
	}
	return cfg.CharacterSize, nil
}

// SetParity sets the parity mode
func (p *Port) SetParity(parity Parity) error {
	return p.applyConfig("parity", WithParity(parity))
}

// GetParity returns the parity mode active on the device
func (p *Port) GetParity() (Parity, error) {
	cfg, err := p.GetConfig()
	if err != nil {
		return ParityDefault, err
	}
	return cfg.Parity, nil
}

// SetNumberOfStopBits sets the number of stop bits
func (p *Port) SetNumberOfStopBits(bits StopBits) error {
	return p.applyConfig("stop bits", WithStopBits(bits))
}

// GetNumberOfStopBits returns the number of stop bits active on the device
func (p *Port) GetNumberOfStopBits() (StopBits, error) {
	cfg, err := p.GetConfig()
	if err != nil {
		return StopBitsDefault, err
	}
	return cfg.StopBits, nil
}

// SetFlowControl sets the flow control mode
func (p *Port) SetFlowControl(fc FlowControl) error {
	return p.applyConfig("flow control", WithFlowControl(fc))
}

// GetFlowControl returns the flow control mode active on the device
func (p *Port) GetFlowControl() (FlowControl, error) {
	cfg, err := p.GetConfig()
	if err != nil {
		return FlowControlDefault, err
	}
	return cfg.FlowControl, nil
}

// SetVMin sets the minimum byte count for a non-canonical read (0-255)
func (p *Port) SetVMin(vmin int) error {
	return p.applyConfig("VMIN", WithVMin(vmin))
}

// GetVMin returns the VMIN value active on the device
func (p *Port) GetVMin() (int, error) {
	cfg, err := p.GetConfig()
	if err != nil {
		return 0, err
	}
	return cfg.VMin, nil
}

// SetVTime sets the non-canonical read timeout in tenths of seconds (0-255)
func (p *Port) SetVTime(vtime int) error {
	return p.applyConfig("VTIME", WithVTime(vtime))
}

// GetVTime returns the VTIME value active on the device
func (p *Port) GetVTime() (int, error) {
	cfg, err := p.GetConfig()
	if err != nil {
		return 0, err
	}
	return cfg.VTime, nil
}
