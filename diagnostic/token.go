// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// punctuators are the multi-character JavaScript operators, longest first.
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
}

// tokenWidth returns the width in bytes of the JavaScript token starting at
// byte offset i of line.  Anything unrecognized is one character wide.
func tokenWidth(line string, i int) int {
	if i < 0 || i >= len(line) {
		return 1
	}
	r, size := utf8.DecodeRuneInString(line[i:])
	switch {
	case isIdentStart(r):
		return identWidth(line, i)
	case isDigit(line[i]), line[i] == '.' && i+1 < len(line) && isDigit(line[i+1]):
		return numberWidth(line, i)
	case r == '"', r == '\'', r == '`':
		return stringWidth(line, i)
	}
	for _, op := range punctuators {
		if strings.HasPrefix(line[i:], op) {
			return len(op)
		}
	}
	return size
}

func identWidth(line string, i int) int {
	j := i
	for j < len(line) {
		r, size := utf8.DecodeRuneInString(line[j:])
		if !isIdentPart(r) {
			break
		}
		j += size
	}
	return j - i
}

func numberWidth(line string, i int) int {
	j := i
	if line[j] == '0' && j+1 < len(line) && strings.ContainsRune("xXoObB", rune(line[j+1])) {
		j += 2
		for j < len(line) && (isHexDigit(line[j]) || line[j] == '_') {
			j++
		}
		return j - i
	}
	for j < len(line) && (isDigit(line[j]) || line[j] == '_' || line[j] == '.') {
		j++
	}
	if j < len(line) && (line[j] == 'e' || line[j] == 'E') {
		k := j + 1
		if k < len(line) && (line[k] == '+' || line[k] == '-') {
			k++
		}
		if k < len(line) && isDigit(line[k]) {
			j = k
			for j < len(line) && isDigit(line[j]) {
				j++
			}
		}
	}
	if j < len(line) && line[j] == 'n' {
		j++
	}
	return j - i
}

// stringWidth covers a quoted literal including both quotes.  An
// unterminated literal runs to the end of the line.
func stringWidth(line string, i int) int {
	quote := line[i]
	for j := i + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case quote:
			return j + 1 - i
		}
	}
	return len(line) - i
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
