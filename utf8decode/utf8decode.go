// Package utf8decode implements a byte-at-a-time UTF-8 decoder as an
// explicit state machine, so the escape parser can feed it one byte from
// the PTY stream at a time and interleave decoding with control-byte
// dispatch. It accepts only the well-formed UTF-8 subset: overlong
// encodings, surrogate halves, and out-of-range lead bytes are rejected.
package utf8decode

// State is the decoder's tagged state: which continuation byte (if any)
// it is waiting for, and what constraint that byte must satisfy to rule
// out an overlong or out-of-range encoding.
type State uint8

const (
	// Initial expects a lead byte (ASCII or a multi-byte sequence head).
	Initial State = iota
	needSecondOf2Byte
	needSecondOf3ByteAfterE0
	needSecondOf3ByteOther
	needThirdOf3Byte
	needSecondOf4ByteAfterF0
	needSecondOf4ByteF1ToF3
	needSecondOf4ByteF4
	needThirdOf4Byte
	needFourthOf4Byte
)

// Decoder accumulates UTF-8 bytes one at a time into a decoded rune.
type Decoder struct {
	state State
	cp    rune
}

// New returns a decoder ready to accept a lead byte.
func New() *Decoder {
	return &Decoder{state: Initial}
}

// State reports the decoder's current state.
func (d *Decoder) State() State { return d.state }

// Reset returns the decoder to Initial, discarding any partially
// assembled codepoint.
func (d *Decoder) Reset() {
	d.state = Initial
	d.cp = 0
}

// Feed advances the decoder by one byte. It returns (r, true) when b
// completes a well-formed codepoint. It returns (0, false) otherwise,
// either because more continuation bytes are needed or because b was
// rejected as malformed — in the latter case the decoder silently resets
// to Initial and the malformed bytes are dropped without producing a
// replacement character. A byte that fails a continuation check is not
// itself reinterpreted as a new lead byte; the caller owns re-feeding it
// if that is the desired recovery behaviour.
func (d *Decoder) Feed(b byte) (r rune, ok bool) {
	switch d.state {
	case Initial:
		return d.feedLead(b)

	case needSecondOf2Byte:
		if !isContinuation(b) {
			d.Reset()
			return 0, false
		}
		cp := (d.cp << 6) | rune(b&0x3F)
		d.Reset()
		return cp, true

	case needSecondOf3ByteAfterE0:
		// E0 requires A0..BF to rule out an overlong 3-byte encoding.
		if b < 0xA0 || b > 0xBF {
			d.Reset()
			return 0, false
		}
		d.cp = (d.cp << 6) | rune(b&0x3F)
		d.state = needThirdOf3Byte
		return 0, false

	case needSecondOf3ByteOther:
		if !isContinuation(b) {
			d.Reset()
			return 0, false
		}
		d.cp = (d.cp << 6) | rune(b&0x3F)
		d.state = needThirdOf3Byte
		return 0, false

	case needThirdOf3Byte:
		if !isContinuation(b) {
			d.Reset()
			return 0, false
		}
		cp := (d.cp << 6) | rune(b&0x3F)
		d.Reset()
		if cp >= 0xD800 && cp <= 0xDFFF {
			return 0, false
		}
		return cp, true

	case needSecondOf4ByteAfterF0:
		// F0 requires 90..BF to rule out an overlong 4-byte encoding.
		if b < 0x90 || b > 0xBF {
			d.Reset()
			return 0, false
		}
		d.cp = (d.cp << 6) | rune(b&0x3F)
		d.state = needThirdOf4Byte
		return 0, false

	case needSecondOf4ByteF1ToF3:
		if !isContinuation(b) {
			d.Reset()
			return 0, false
		}
		d.cp = (d.cp << 6) | rune(b&0x3F)
		d.state = needThirdOf4Byte
		return 0, false

	case needSecondOf4ByteF4:
		// F4 requires 80..8F to stay within the supplementary-plane max
		// (U+10FFFF); anything above would overflow past it.
		if b < 0x80 || b > 0x8F {
			d.Reset()
			return 0, false
		}
		d.cp = (d.cp << 6) | rune(b&0x3F)
		d.state = needThirdOf4Byte
		return 0, false

	case needThirdOf4Byte:
		if !isContinuation(b) {
			d.Reset()
			return 0, false
		}
		d.cp = (d.cp << 6) | rune(b&0x3F)
		d.state = needFourthOf4Byte
		return 0, false

	case needFourthOf4Byte:
		if !isContinuation(b) {
			d.Reset()
			return 0, false
		}
		cp := (d.cp << 6) | rune(b&0x3F)
		d.Reset()
		return cp, true
	}

	d.Reset()
	return 0, false
}

func (d *Decoder) feedLead(b byte) (rune, bool) {
	switch {
	case b < 0x80:
		return rune(b), true
	case b < 0xC2:
		// 0x80-0xBF are stray continuations; 0xC0-0xC1 can only encode
		// overlong 2-byte sequences. Both are rejected as lead bytes.
		return 0, false
	case b < 0xE0:
		d.cp = rune(b & 0x1F)
		d.state = needSecondOf2Byte
		return 0, false
	case b == 0xE0:
		d.cp = rune(b & 0x0F)
		d.state = needSecondOf3ByteAfterE0
		return 0, false
	case b < 0xED:
		d.cp = rune(b & 0x0F)
		d.state = needSecondOf3ByteOther
		return 0, false
	case b == 0xED:
		// ED can lead into the surrogate range D800-DFFF; treat like any
		// other 3-byte lead and let the final-byte surrogate check reject it.
		d.cp = rune(b & 0x0F)
		d.state = needSecondOf3ByteOther
		return 0, false
	case b < 0xF0:
		d.cp = rune(b & 0x0F)
		d.state = needSecondOf3ByteOther
		return 0, false
	case b == 0xF0:
		d.cp = rune(b & 0x07)
		d.state = needSecondOf4ByteAfterF0
		return 0, false
	case b < 0xF4:
		d.cp = rune(b & 0x07)
		d.state = needSecondOf4ByteF1ToF3
		return 0, false
	case b == 0xF4:
		d.cp = rune(b & 0x07)
		d.state = needSecondOf4ByteF4
		return 0, false
	default:
		// F5-FF cannot encode a codepoint within the Unicode range.
		return 0, false
	}
}

func isContinuation(b byte) bool {
	return b >= 0x80 && b <= 0xBF
}
