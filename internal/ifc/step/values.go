package step

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Enum is an enumeration value such as .ELEMENT. or the logical .T.
type Enum string

// Ref is a reference to another instance by its local handle.
type Ref int

// Binary is a hex-encoded binary literal.
type Binary string

// Typed is a value wrapped in its defined type, e.g. IFCLABEL('x').
type Typed struct {
	Type  string
	Value any
}

// valueOf converts a parsed parameter into its Go representation. Unset and
// derived parameters become nil.
func valueOf(p *param) (any, error) {
	switch {
	case p.String != nil:
		return decodeString(*p.String)
	case p.Unset, p.Derived:
		return nil, nil
	case p.Enum != nil:
		return Enum(strings.Trim(*p.Enum, ".")), nil
	case p.Ref != nil:
		return parseRef(*p.Ref)
	case p.Real != nil:
		return *p.Real, nil
	case p.Int != nil:
		return *p.Int, nil
	case p.Binary != nil:
		return Binary(strings.Trim(*p.Binary, `"`)), nil
	case p.List != nil:
		return valuesOf(p.List)
	case p.Typed != nil:
		inner, err := valuesOf(p.Typed.Params)
		if err != nil {
			return nil, err
		}
		t := Typed{Type: p.Typed.Type}
		if len(inner) == 1 {
			t.Value = inner[0]
		} else {
			t.Value = inner
		}
		return t, nil
	}
	return nil, nil
}

func valuesOf(pl *paramList) ([]any, error) {
	if pl == nil {
		return nil, nil
	}
	out := make([]any, 0, len(pl.Items))
	for _, p := range pl.Items {
		v, err := valueOf(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseRef(tok string) (Ref, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(tok, "#"))
	if err != nil {
		return 0, fmt.Errorf("invalid reference %q: %w", tok, err)
	}
	return Ref(n), nil
}

// decodeString strips the quotes of a STEP string literal and resolves its
// escapes: '' for a quote, \\ for a backslash, \S\c, \X\hh, and the
// \X2\...\X0\ and \X4\...\X0\ unicode runs.
func decodeString(tok string) (string, error) {
	if len(tok) < 2 {
		return "", fmt.Errorf("invalid string literal %q", tok)
	}
	s := strings.ReplaceAll(tok[1:len(tok)-1], "''", "'")
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, `\\`):
			b.WriteByte('\\')
			i += 2
		case strings.HasPrefix(rest, `\S\`) && len(rest) >= 4:
			b.WriteRune(rune(rest[3]) + 128)
			i += 4
		case strings.HasPrefix(rest, `\X2\`), strings.HasPrefix(rest, `\X4\`):
			width := 4
			if rest[2] == '4' {
				width = 8
			}
			end := strings.Index(rest[4:], `\X0\`)
			if end < 0 {
				return "", fmt.Errorf("unterminated unicode escape in %q", tok)
			}
			runes, err := decodeHexRun(rest[4:4+end], width)
			if err != nil {
				return "", fmt.Errorf("decoding %q: %w", tok, err)
			}
			b.WriteString(string(runes))
			i += 4 + end + 4
		case strings.HasPrefix(rest, `\X\`) && len(rest) >= 5:
			n, err := strconv.ParseUint(rest[3:5], 16, 8)
			if err != nil {
				return "", fmt.Errorf("decoding %q: %w", tok, err)
			}
			b.WriteRune(rune(n))
			i += 5
		default:
			b.WriteByte('\\')
			i++
		}
	}
	return b.String(), nil
}

func decodeHexRun(hex string, width int) ([]rune, error) {
	if len(hex)%width != 0 {
		return nil, fmt.Errorf("hex run %q is not a multiple of %d", hex, width)
	}
	if width == 8 {
		runes := make([]rune, 0, len(hex)/8)
		for j := 0; j < len(hex); j += 8 {
			n, err := strconv.ParseUint(hex[j:j+8], 16, 32)
			if err != nil {
				return nil, err
			}
			runes = append(runes, rune(n))
		}
		return runes, nil
	}
	units := make([]uint16, 0, len(hex)/4)
	for j := 0; j < len(hex); j += 4 {
		n, err := strconv.ParseUint(hex[j:j+4], 16, 16)
		if err != nil {
			return nil, err
		}
		units = append(units, uint16(n))
	}
	return utf16.Decode(units), nil
}
