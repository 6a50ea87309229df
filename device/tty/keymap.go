package tty

// Scancode set 1 make codes of interest. Break codes add 0x80.
const (
	ScanBackspace = 0x0E
	ScanTab       = 0x0F
	ScanEnter     = 0x1C
	ScanCtrl      = 0x1D
	ScanLShift    = 0x2A
	ScanRShift    = 0x36
	ScanAlt       = 0x38
	ScanSpace     = 0x39
	ScanCaps      = 0x3A
	ScanF1        = 0x3B
	ScanF2        = 0x3C
	ScanF3        = 0x3D

	Release = 0x80
)

// keymap[scancode] = {unshifted, shifted}. Zero means no character.
var keymap = [...][2]byte{
	0x02: {'1', '!'}, 0x03: {'2', '@'}, 0x04: {'3', '#'}, 0x05: {'4', '$'},
	0x06: {'5', '%'}, 0x07: {'6', '^'}, 0x08: {'7', '&'}, 0x09: {'8', '*'},
	0x0A: {'9', '('}, 0x0B: {'0', ')'}, 0x0C: {'-', '_'}, 0x0D: {'=', '+'},
	0x0F: {'\t', '\t'},
	0x10: {'q', 'Q'}, 0x11: {'w', 'W'}, 0x12: {'e', 'E'}, 0x13: {'r', 'R'},
	0x14: {'t', 'T'}, 0x15: {'y', 'Y'}, 0x16: {'u', 'U'}, 0x17: {'i', 'I'},
	0x18: {'o', 'O'}, 0x19: {'p', 'P'}, 0x1A: {'[', '{'}, 0x1B: {']', '}'},
	0x1C: {'\n', '\n'},
	0x1E: {'a', 'A'}, 0x1F: {'s', 'S'}, 0x20: {'d', 'D'}, 0x21: {'f', 'F'},
	0x22: {'g', 'G'}, 0x23: {'h', 'H'}, 0x24: {'j', 'J'}, 0x25: {'k', 'K'},
	0x26: {'l', 'L'}, 0x27: {';', ':'}, 0x28: {'\'', '"'}, 0x29: {'`', '~'},
	0x2B: {'\\', '|'},
	0x2C: {'z', 'Z'}, 0x2D: {'x', 'X'}, 0x2E: {'c', 'C'}, 0x2F: {'v', 'V'},
	0x30: {'b', 'B'}, 0x31: {'n', 'N'}, 0x32: {'m', 'M'}, 0x33: {',', '<'},
	0x34: {'.', '>'}, 0x35: {'/', '?'},
	0x39: {' ', ' '},
	0x3A: {},
}

// reverse maps a character to the scancode and whether shift is needed.
var reverse = func() map[byte][2]byte {
	m := make(map[byte][2]byte)

	for sc, pair := range keymap {
		if pair[0] != 0 {
			if _, ok := m[pair[0]]; !ok {
				m[pair[0]] = [2]byte{byte(sc), 0}
			}
		}

		if pair[1] != 0 && pair[1] != pair[0] {
			if _, ok := m[pair[1]]; !ok {
				m[pair[1]] = [2]byte{byte(sc), 1}
			}
		}
	}

	return m
}()

// Scancodes encodes text as key presses and releases. Characters the
// keyboard cannot produce are dropped.
func Scancodes(s string) []byte {
	var out []byte

	for i := 0; i < len(s); i++ {
		c := s[i]

		if c == '\b' {
			out = append(out, ScanBackspace, ScanBackspace|Release)
			continue
		}

		k, ok := reverse[c]
		if !ok {
			continue
		}

		if k[1] == 1 {
			out = append(out, ScanLShift, k[0], k[0]|Release, ScanLShift|Release)
		} else {
			out = append(out, k[0], k[0]|Release)
		}
	}

	return out
}

// Ctrl encodes ctrl+c for a letter c.
func Ctrl(c byte) []byte {
	k := reverse[c]
	return []byte{ScanCtrl, k[0], k[0] | Release, ScanCtrl | Release}
}

// AltF encodes alt+F1..F3 for terminal t.
func AltF(t int) []byte {
	fn := byte(ScanF1 + t)
	return []byte{ScanAlt, fn, fn | Release, ScanAlt | Release}
}
