package signature

import "fmt"

// cursor walks a signature string. The first failure sticks; afterwards
// every read returns zero and the parse unwinds on its own.
type cursor struct {
	src string
	pos int
	err error
}

func (c *cursor) failf(format string, args ...any) {
	if c.err == nil {
		c.err = fmt.Errorf("offset %d: "+format, append([]any{c.pos}, args...)...)
	}
}

func (c *cursor) next() byte {
	if c.err != nil {
		return 0
	}
	if c.pos >= len(c.src) {
		c.failf("unexpected end of signature")
		return 0
	}
	b := c.src[c.pos]
	c.pos++
	return b
}

func (c *cursor) peek() byte {
	if c.err != nil {
		return 0
	}
	if c.pos >= len(c.src) {
		c.failf("unexpected end of signature")
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) peekIs(b byte) bool {
	return c.err == nil && c.pos < len(c.src) && c.src[c.pos] == b
}

func (c *cursor) consumeIf(b byte) bool {
	if !c.peekIs(b) {
		return false
	}
	c.pos++
	return true
}

func (c *cursor) expect(b byte) {
	if got := c.next(); got != b && c.err == nil {
		c.failf("expected %q, found %q", b, got)
	}
}

func (c *cursor) expectEnd() {
	if c.err == nil && c.pos != len(c.src) {
		c.failf("trailing content %q", c.src[c.pos:])
	}
}

// identUntil reads up to, not including, delim. Running off the end is an
// error.
func (c *cursor) identUntil(delim byte) string {
	start := c.pos
	for c.err == nil && !c.peekIs(delim) {
		c.next()
	}
	return c.src[start:c.pos]
}

// identUntilAny reads up to the first of delims or the end of input.
func (c *cursor) identUntilAny(delims ...byte) string {
	start := c.pos
	for c.err == nil && c.pos < len(c.src) {
		for _, d := range delims {
			if c.src[c.pos] == d {
				return c.src[start:c.pos]
			}
		}
		c.pos++
	}
	return c.src[start:c.pos]
}
