package phpfront

import (
	"testing"
)

func TestInterpretString(t *testing.T) {
	type testCase struct {
		quote byte
		raw   string
		want  string
	}
	type simpleTestCase struct {
		raw  string
		want string
	}

	sharedTests := []simpleTestCase{
		{"", ""},
		{"a", "a"},
		{"abc", "abc"},
		{"юникод", "юникод"},

		{`\\`, `\`},
		{`\\\\`, `\\`},
		{`\\x\\x`, `\x\x`},
		{`a\`, `a\`},
	}

	// Strings enclosed between ''.
	q1tests := []simpleTestCase{
		{`\$x`, `\$x`},
		{`\'`, `'`},
		{`\"`, `\"`},
		{`\n`, `\n`},
		{`\r\n`, `\r\n`},
		{`\t`, `\t`},
		{`\x00`, `\x00`},
		{`\xff`, `\xff`},
		{`\x1aaa`, `\x1aaa`},
		{`\101`, `\101`},
	}

	// Strings enclosed between "".
	q2tests := []simpleTestCase{
		{`\$x`, `$x`},
		{`\'`, `\'`},
		{`\"`, `"`},
		{`\n`, "\n"},
		{`\r\n`, "\r\n"},
		{`\t`, "\t"},
		{`\x00`, "\x00"},
		{`\xff`, "\xff"},
		{`\x1aaa`, "\x1aaa"},
		{`\xzz`, `\xzz`},
		{`\101`, "A"},
		{`\u{48}i`, "Hi"},
		{`\q`, `\q`},
	}

	var tests []testCase
	for _, test := range sharedTests {
		tests = append(tests,
			testCase{quote: '"', raw: test.raw, want: test.want},
			testCase{quote: '\'', raw: test.raw, want: test.want})
	}
	for _, test := range q1tests {
		tests = append(tests, testCase{quote: '\'', raw: test.raw, want: test.want})
	}
	for _, test := range q2tests {
		tests = append(tests, testCase{quote: '"', raw: test.raw, want: test.want})
	}

	for _, test := range tests {
		want := test.want
		have, ok := interpretString(test.raw, test.quote)
		if !ok {
			t.Errorf("interpretString(%q, %v): failed to eval",
				test.raw, test.quote)
			continue
		}
		if have != want {
			t.Errorf("interpretString(%q, %v): results mismatch:\nhave: %q\nwant: %q",
				test.raw, test.quote, have, want)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		lit  string
		want string
		ok   bool
	}{
		{`'a'`, "a", true},
		{`"a\tb"`, "a\tb", true},
		{`''`, "", true},
		{`'a"`, "", false},
		{`'`, "", false},
		{"`a`", "", false},
		{`"\u{zz}"`, "", false},
	}
	for _, test := range tests {
		have, ok := unquote(test.lit)
		if ok != test.ok || have != test.want {
			t.Errorf("unquote(%s): have (%q, %v), want (%q, %v)",
				test.lit, have, ok, test.want, test.ok)
		}
	}
}
