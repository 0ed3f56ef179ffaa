package hatanaka

// TextDiff compresses a line character by character against the previous line.
// In the patch an unchanged character is a blank, a character that became
// a blank is '&' and all other characters are written as they are.
type TextDiff struct {
	buf []byte // the last absolute line
}

// NewTextDiff returns a new TextDiff initialized with line.
func NewTextDiff(line string) *TextDiff {
	d := &TextDiff{}
	d.ForceInit(line)
	return d
}

// ForceInit replaces the retained line.
func (d *TextDiff) ForceInit(line string) {
	d.buf = append(d.buf[:0], line...)
}

// Line returns the retained line.
func (d *TextDiff) Line() string {
	return string(d.buf)
}

// Decompress returns the line recovered from patch and retains it.
// Characters beyond the retained line are appended, a patch shorter than
// the retained line keeps its tail.
func (d *TextDiff) Decompress(patch string) string {
	d.buf = d.recover(patch)
	return string(d.buf)
}

// recover returns the line for patch without modifying the retained line.
func (d *TextDiff) recover(patch string) []byte {
	line := make([]byte, len(d.buf), max(len(d.buf), len(patch)))
	copy(line, d.buf)
	for i := 0; i < len(patch); i++ {
		c := patch[i]
		if c == '&' {
			c = ' '
		} else if c == ' ' && i < len(line) {
			continue
		}
		if i < len(line) {
			line[i] = c
		} else {
			line = append(line, c)
		}
	}
	return line
}

// Compress returns the patch for line and retains line.
func (d *TextDiff) Compress(line string) string {
	patch := make([]byte, len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case i < len(d.buf) && c == d.buf[i]:
			patch[i] = ' '
		case c == ' ':
			patch[i] = '&'
		default:
			patch[i] = c
		}
	}
	d.buf = append(d.buf[:0], line...)
	return string(patch)
}
