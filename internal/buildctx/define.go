package buildctx

import (
	"fmt"
	"strconv"
	"strings"
)

// Define is a single preprocessor definition. Value holds the C token text exactly as the
// compiler should see it, so a string macro carries its own quotes.
type Define struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// StringDefine builds a string-valued macro whose value is s as a C string literal.
func StringDefine(name, s string) Define {
	return Define{Name: name, Value: CStringLiteral(s)}
}

// IntDefine builds a numeric macro.
func IntDefine(name string, v uint64) Define {
	return Define{Name: name, Value: strconv.FormatUint(v, 10)}
}

// String renders NAME or NAME=VALUE.
func (d Define) String() string {
	if d.Value == "" {
		return d.Name
	}
	return d.Name + "=" + d.Value
}

// CompilerFlag renders -DNAME=VALUE for use as a single argv element (no shell involved).
func (d Define) CompilerFlag() string {
	return "-D" + d.String()
}

// ShellEscaped renders the definition with double quotes and backslashes escaped, the form
// build systems expect in build_flags / CPPDEFINES strings that pass through a shell,
// e.g. FIRMWARE_VERSION=\"v1.2.3\".
func (d Define) ShellEscaped() string {
	if d.Value == "" {
		return d.Name
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return d.Name + "=" + r.Replace(d.Value)
}

// Unquoted returns the string content of a string-valued macro, or the raw value otherwise.
func (d Define) Unquoted() string {
	v := d.Value
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	inner := v[1 : len(v)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i+1 >= len(inner) {
			b.WriteByte(c)
			continue
		}
		i++
		switch n := inner[i]; {
		case n == 'n':
			b.WriteByte('\n')
		case n == 't':
			b.WriteByte('\t')
		case n >= '0' && n <= '7':
			val := 0
			j := i
			for ; j < len(inner) && j < i+3 && inner[j] >= '0' && inner[j] <= '7'; j++ {
				val = val*8 + int(inner[j]-'0')
			}
			b.WriteByte(byte(val))
			i = j - 1
		default:
			b.WriteByte(n)
		}
	}
	return b.String()
}

// ParseDefine splits NAME=VALUE. A leading -D is tolerated.
func ParseDefine(s string) (Define, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "-D")
	if s == "" {
		return Define{}, fmt.Errorf("empty definition")
	}
	name, value, _ := strings.Cut(s, "=")
	if !isIdentifier(name) {
		return Define{}, fmt.Errorf("invalid macro name %q", name)
	}
	return Define{Name: name, Value: value}, nil
}

// CStringLiteral quotes s for embedding in C source. Control and non-ASCII bytes are
// emitted as three-digit octal escapes so the literal never ends early.
func CStringLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\%03o`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
