package tiny

import (
	"fmt"
	"strings"
)

// maxStackDepth bounds the decode stack at K*4, per §4.B.
func (t *Tree) maxStackDepth() int { return t.K * 4 }

// nodeBuilder is either Tree.basicNode (decode_fast, trusting the name is
// already canonical) or Tree.AddNormalised (decode_safe, re-normalising
// untrusted input).
type nodeBuilder func(q, tt, f Ref) (Ref, error)

// DecodeFast parses a postfix name without re-normalising, for names
// already known to be canonical.
func (t *Tree) DecodeFast(name string, skin Skin) (Ref, error) {
	return t.decode(name, skin, t.basicNode)
}

// DecodeSafe parses a postfix name the same way, but every constructed
// node is re-normalised through AddNormalised, for untrusted input.
func (t *Tree) DecodeSafe(name string, skin Skin) (Ref, error) {
	return t.decode(name, skin, t.AddNormalised)
}

func (t *Tree) decode(name string, skin Skin, build nodeBuilder) (Ref, error) {
	body := name
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		body = name[:idx]
		inline := Skin(strings.TrimSpace(name[idx+1:]))
		if inline != "" {
			skin = inline
		}
	}

	stack := make([]Ref, 0, t.maxStackDepth())
	push := func(r Ref) error {
		if len(stack) >= t.maxStackDepth() {
			return fmt.Errorf("tiny: decode stack overflow parsing %q", name)
		}
		stack = append(stack, r)
		return nil
	}
	// upperAccum accumulates an in-progress extended back-reference.
	var upperAccum int
	inUpper := false

	flushUpperOnly := func() error {
		if !inUpper {
			return nil
		}
		// An uppercase run not terminated by a trailing digit names the
		// back-reference directly (value already in base 26).
		ref, err := t.backref(upperAccum)
		if err != nil {
			return err
		}
		if err := push(ref); err != nil {
			return err
		}
		inUpper = false
		upperAccum = 0
		return nil
	}

	for i := 0; i < len(body); i++ {
		ch := body[i]

		switch {
		case ch == ' ':
			continue

		case ch >= 'A' && ch <= 'Z':
			inUpper = true
			upperAccum = upperAccum*26 + int(ch-'A')
			continue

		case ch >= '0' && ch <= '9':
			if inUpper {
				n := upperAccum*10 + int(ch-'0')
				inUpper = false
				upperAccum = 0
				ref, err := t.backref(n)
				if err != nil {
					return 0, err
				}
				if err := push(ref); err != nil {
					return 0, err
				}
				continue
			}
			if ch == '0' {
				if err := push(0); err != nil {
					return 0, err
				}
				continue
			}
			ref, err := t.backref(int(ch - '0'))
			if err != nil {
				return 0, err
			}
			if err := push(ref); err != nil {
				return 0, err
			}

		case ch >= 'a' && ch < byte('a'+t.Slots):
			if err := flushUpperOnly(); err != nil {
				return 0, err
			}
			mapped := skin.remap(ch, t.Slots)
			slot := Ref(mapped-'a') + 1
			if err := push(slot); err != nil {
				return 0, err
			}

		default:
			if err := flushUpperOnly(); err != nil {
				return 0, err
			}
			if err := t.applyOperator(ch, &stack, build, name); err != nil {
				return 0, err
			}
		}
	}
	if err := flushUpperOnly(); err != nil {
		return 0, err
	}

	if len(stack) != 1 {
		return 0, fmt.Errorf("tiny: decode of %q left %d values on the stack, want 1", name, len(stack))
	}
	return stack[0], nil
}

// backref resolves a back-reference count n (the n-th most recently
// constructed node) to an absolute node reference.
func (t *Tree) backref(n int) (Ref, error) {
	idx := t.Count - n
	if idx <= t.Slots || idx >= t.Count {
		return 0, fmt.Errorf("tiny: back-reference %d out of range (count=%d)", n, t.Count)
	}
	return Ref(idx), nil
}

func (t *Tree) applyOperator(op byte, stack *[]Ref, build nodeBuilder, name string) error {
	pop := func() (Ref, error) {
		s := *stack
		if len(s) == 0 {
			return 0, fmt.Errorf("tiny: operator %q: stack underflow parsing %q", string(op), name)
		}
		v := s[len(s)-1]
		*stack = s[:len(s)-1]
		return v, nil
	}
	push := func(r Ref) error {
		*stack = append(*stack, r)
		return nil
	}

	switch op {
	case '~':
		v, err := pop()
		if err != nil {
			return err
		}
		return push(v ^ IBIT)

	case '+': // OR
		rhs, err := pop()
		if err != nil {
			return err
		}
		lhs, err := pop()
		if err != nil {
			return err
		}
		r, err := build(lhs, IBIT, rhs)
		if err != nil {
			return err
		}
		return push(r)

	case '>': // GT
		rhs, err := pop()
		if err != nil {
			return err
		}
		lhs, err := pop()
		if err != nil {
			return err
		}
		r, err := build(lhs, rhs|IBIT, 0)
		if err != nil {
			return err
		}
		return push(r)

	case '<': // LT, deprecated: a < b == b > a
		rhs, err := pop()
		if err != nil {
			return err
		}
		lhs, err := pop()
		if err != nil {
			return err
		}
		r, err := build(rhs, lhs|IBIT, 0)
		if err != nil {
			return err
		}
		return push(r)

	case '^': // XOR
		rhs, err := pop()
		if err != nil {
			return err
		}
		lhs, err := pop()
		if err != nil {
			return err
		}
		r, err := build(lhs, rhs|IBIT, rhs)
		if err != nil {
			return err
		}
		return push(r)

	case '&': // AND
		rhs, err := pop()
		if err != nil {
			return err
		}
		lhs, err := pop()
		if err != nil {
			return err
		}
		r, err := build(lhs, rhs, 0)
		if err != nil {
			return err
		}
		return push(r)

	case '!': // QnTF ternary: pop F, T, Q
		f, err := pop()
		if err != nil {
			return err
		}
		tt, err := pop()
		if err != nil {
			return err
		}
		q, err := pop()
		if err != nil {
			return err
		}
		r, err := build(q, tt|IBIT, f)
		if err != nil {
			return err
		}
		return push(r)

	case '?': // QTF ternary: pop F, T, Q
		f, err := pop()
		if err != nil {
			return err
		}
		tt, err := pop()
		if err != nil {
			return err
		}
		q, err := pop()
		if err != nil {
			return err
		}
		r, err := build(q, tt, f)
		if err != nil {
			return err
		}
		return push(r)

	default:
		return fmt.Errorf("tiny: unknown operator %q in %q", string(op), name)
	}
}
