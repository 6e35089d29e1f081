package phpfront

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// unquote decodes a PHP string literal including its quotes.
func unquote(lit string) (string, bool) {
	if len(lit) < 2 {
		return "", false
	}
	quote := lit[0]
	if lit[len(lit)-1] != quote {
		return "", false
	}
	return interpretString(lit[1:len(lit)-1], quote)
}

// interpretString decodes escape sequences of a string literal body
// that was enclosed in quote.
func interpretString(s string, quote byte) (string, bool) {
	switch quote {
	case '\'', '"':
		// OK
	default:
		return "", false
	}

	if !strings.Contains(s, `\`) {
		// Fast path.
		return s, true
	}

	var out strings.Builder
	i := 0
	for i < len(s) {
		ch := s[i]
		switch {
		case ch == '\\':
			if i+1 >= len(s) {
				// A trailing backslash is kept as is.
				out.WriteByte(ch)
				i++
				continue
			}
			if quote == '\'' {
				switch s[i+1] {
				case '\'', '\\':
					out.WriteByte(s[i+1])
				default:
					out.WriteByte('\\')
					out.WriteByte(s[i+1])
				}
				i += 2
				continue
			}
			switch s[i+1] {
			case '"', '$', '\\':
				out.WriteByte(s[i+1])
				i += 2
			case 'n':
				out.WriteByte('\n')
				i += 2
			case 'r':
				out.WriteByte('\r')
				i += 2
			case 't':
				out.WriteByte('\t')
				i += 2
			case 'v':
				out.WriteByte('\v')
				i += 2
			case 'e':
				out.WriteByte(0x1b)
				i += 2
			case 'f':
				out.WriteByte('\f')
				i += 2
			case 'x':
				n := hexPrefix(s[i+2:], 2)
				if n == 0 {
					out.WriteString(`\x`)
					i += 2
					continue
				}
				v, err := strconv.ParseUint(s[i+2:i+2+n], 16, 8)
				if err != nil {
					return "", false
				}
				out.WriteByte(byte(v))
				i += 2 + n
			case 'u':
				r, n, ok := unicodeEscape(s[i+2:])
				if !ok {
					return "", false
				}
				out.WriteRune(r)
				i += 2 + n
			default:
				if n := octalPrefix(s[i+1:], 3); n != 0 {
					v, err := strconv.ParseUint(s[i+1:i+1+n], 8, 16)
					if err != nil {
						return "", false
					}
					out.WriteByte(byte(v))
					i += 1 + n
					continue
				}
				// Unknown escapes are kept verbatim.
				out.WriteByte('\\')
				out.WriteByte(s[i+1])
				i += 2
			}
		case ch <= unicode.MaxASCII:
			out.WriteByte(ch)
			i++
		default:
			r, n := utf8.DecodeRuneInString(s[i:])
			out.WriteRune(r)
			i += n
		}
	}
	return out.String(), true
}

func hexPrefix(s string, max int) int {
	n := 0
	for n < len(s) && n < max && strings.IndexByte("0123456789abcdefABCDEF", s[n]) != -1 {
		n++
	}
	return n
}

func octalPrefix(s string, max int) int {
	n := 0
	for n < len(s) && n < max && s[n] >= '0' && s[n] <= '7' {
		n++
	}
	return n
}

// unicodeEscape decodes the `{XXXX}` part of a `\u{XXXX}` escape.
func unicodeEscape(s string) (rune, int, bool) {
	if !strings.HasPrefix(s, "{") {
		return 0, 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 2 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:end], 16, 32)
	if err != nil || v > unicode.MaxRune {
		return 0, 0, false
	}
	return rune(v), end + 1, true
}
