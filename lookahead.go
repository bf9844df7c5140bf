package serial

// lookahead holds at most one byte: empty or holding-one.
type lookahead struct {
	b    byte
	full bool
}

// put stores c and reports false if a byte is already held.
func (s *lookahead) put(c byte) bool {
	if s.full {
		return false
	}
	s.b, s.full = c, true
	return true
}

// take removes and returns the held byte.
func (s *lookahead) take() (byte, bool) {
	if !s.full {
		return 0, false
	}
	s.full = false
	return s.b, true
}

// peek returns the held byte without removing it.
func (s *lookahead) peek() (byte, bool) {
	return s.b, s.full
}

func (s *lookahead) reset() {
	s.b, s.full = 0, false
}
