// Package tty turns keyboard scancodes into characters and accumulates
// them into lines.
package tty

// Key is one decoded key press.
type Key struct {
	Char byte

	// Fn is 1 for F1 and so on, 0 for other keys.
	Fn int

	Backspace bool
	Ctrl      bool
	Alt       bool
}

// Decoder tracks modifier state across scancodes.
type Decoder struct {
	caps, shift, ctrl, alt bool
}

// Feed consumes one scancode. It reports false for modifiers, releases,
// and codes with no meaning.
func (d *Decoder) Feed(sc byte) (Key, bool) {
	switch sc {
	case ScanCaps:
		d.caps = !d.caps
		return Key{}, false
	case ScanLShift, ScanRShift:
		d.shift = true
		return Key{}, false
	case ScanLShift | Release, ScanRShift | Release:
		d.shift = false
		return Key{}, false
	case ScanCtrl:
		d.ctrl = true
		return Key{}, false
	case ScanCtrl | Release:
		d.ctrl = false
		return Key{}, false
	case ScanAlt:
		d.alt = true
		return Key{}, false
	case ScanAlt | Release:
		d.alt = false
		return Key{}, false
	}

	key := Key{Ctrl: d.ctrl, Alt: d.alt}

	switch {
	case sc == ScanBackspace:
		key.Backspace = true
		return key, true
	case sc >= ScanF1 && sc <= ScanF1+9:
		key.Fn = int(sc-ScanF1) + 1
		return key, true
	case int(sc) >= len(keymap):
		return Key{}, false
	}

	pair := keymap[sc]

	c := pair[0]
	if c >= 'a' && c <= 'z' {
		if d.shift != d.caps {
			c = pair[1]
		}
	} else if d.shift {
		c = pair[1]
	}

	if c == 0 {
		return Key{}, false
	}

	key.Char = c
	return key, true
}
