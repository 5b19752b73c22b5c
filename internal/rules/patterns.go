package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/lychee-technology/inquiry"
)

// DefaultPatterns maps a validation type to its canonical regex. Every entry
// avoids \s so Go and ECMAScript agree on which characters are whitespace.
var DefaultPatterns = map[inquiry.ValidationType]string{
	inquiry.ValidationTypeEmail:  `^[^\t\n\f\r @]+@[^\t\n\f\r @]+\.[^\t\n\f\r @]+$`,
	inquiry.ValidationTypePhone:  `^\+?[0-9()\- ]{7,20}$`,
	inquiry.ValidationTypeNumber: `^-?[0-9]+(\.[0-9]+)?$`,
}

var errNonPortable = errors.New("non-portable construct")

// braceQuantifier matches a counted repetition at the start of its input.
var braceQuantifier = regexp.MustCompile(`^\{[0-9]+(,[0-9]*)?\}`)

// CheckPattern reports whether src compiles with Go regexp and stays inside
// the subset that means the same thing to a browser's RegExp in unicode
// ('u') mode, the only mode the widget compiles patterns in.
func CheckPattern(src string) error {
	if _, err := compiled(src); err != nil {
		return err
	}
	return checkPortable(src)
}

// checkPortable walks src outside character classes. canRepeat is false
// wherever a browser would throw "nothing to repeat" on a quantifier: at the
// start, after an opening group or alternation, and after an anchor or word
// boundary. Go accepts all of those.
func checkPortable(src string) error {
	canRepeat := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '\\':
			n, err := portableEscape(src, i, false)
			if err != nil {
				return err
			}
			canRepeat = src[i+1] != 'b' && src[i+1] != 'B'
			i += n
		case '[':
			end, err := portableClass(src, i)
			if err != nil {
				return err
			}
			i = end
			canRepeat = true
		case '(':
			if i+1 < len(src) && src[i+1] == '?' {
				if i+2 >= len(src) || src[i+2] != ':' {
					return fmt.Errorf("%w: group flags", errNonPortable)
				}
				i += 2
			}
			canRepeat = false
		case '|', '^', '$':
			canRepeat = false
		case '*', '+', '?':
			if !canRepeat {
				return fmt.Errorf("%w: nothing to repeat before %q at offset %d", errNonPortable, c, i)
			}
		case '{':
			m := braceQuantifier.FindString(src[i:])
			if m == "" {
				return fmt.Errorf("%w: literal { at offset %d", errNonPortable, i)
			}
			if !canRepeat {
				return fmt.Errorf("%w: nothing to repeat before %s at offset %d", errNonPortable, m, i)
			}
			i += len(m) - 1
		case '}', ']':
			return fmt.Errorf("%w: literal %c at offset %d", errNonPortable, c, i)
		default:
			canRepeat = true
		}
	}
	return nil
}

// portableEscape checks the escape at src[i] and returns how many bytes past
// the backslash it spans.
func portableEscape(src string, i int, inClass bool) (int, error) {
	if i+1 >= len(src) {
		return 0, fmt.Errorf("%w: trailing backslash", errNonPortable)
	}
	next := src[i+1]
	switch {
	case strings.IndexByte(`^$\.*+?()[]{}|/`, next) >= 0:
		return 1, nil
	case strings.IndexByte("dDwWfnrtv", next) >= 0:
		return 1, nil
	case next == 'b' || next == 'B':
		if inClass {
			return 0, fmt.Errorf("%w: \\%c inside a class", errNonPortable, next)
		}
		return 1, nil
	case next == '-' && inClass:
		return 1, nil
	case next == 'x':
		if i+3 < len(src) && isHexDigit(src[i+2]) && isHexDigit(src[i+3]) {
			return 3, nil
		}
		return 0, fmt.Errorf("%w: hex escape needs exactly two digits", errNonPortable)
	case next == 's' || next == 'S':
		return 0, fmt.Errorf("%w: \\%c has a wider whitespace set in browsers", errNonPortable, next)
	default:
		return 0, fmt.Errorf("%w: escape \\%c", errNonPortable, next)
	}
}

// portableClass checks the class opening at src[start] and returns the index
// of its closing bracket.
func portableClass(src string, start int) (int, error) {
	j := start + 1
	if j < len(src) && src[j] == '^' {
		j++
	}
	if j < len(src) && src[j] == ']' {
		return 0, fmt.Errorf("%w: class starting with ]", errNonPortable)
	}
	for ; j < len(src); j++ {
		switch src[j] {
		case '\\':
			n, err := portableEscape(src, j, true)
			if err != nil {
				return 0, err
			}
			// Go reads [\d-z] as three members, a browser throws.
			if strings.IndexByte("dDwW", src[j+1]) >= 0 &&
				j+3 < len(src) && src[j+2] == '-' && src[j+3] != ']' {
				return 0, fmt.Errorf("%w: range from \\%c", errNonPortable, src[j+1])
			}
			j += n
		case '[':
			if j+1 < len(src) && src[j+1] == ':' {
				return 0, fmt.Errorf("%w: POSIX class", errNonPortable)
			}
		case ']':
			return j, nil
		}
	}
	return 0, fmt.Errorf("%w: unterminated class", errNonPortable)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// BrowserSource rewrites a portable pattern for the widget's RegExp. The only
// change is the dot: a browser's dot also refuses \r, U+2028 and U+2029,
// while Go's refuses only \n, so each unescaped dot outside a class becomes
// [^\n].
func BrowserSource(src string) string {
	if !strings.Contains(src, ".") {
		return src
	}
	var b strings.Builder
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			b.WriteByte(c)
			b.WriteByte(src[i+1])
			i++
			continue
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
			// A leading ] or ^] is a member, not the close.
			if i+1 < len(src) && src[i+1] == '^' {
				b.WriteByte(c)
				i++
				c = src[i]
			}
			if i+1 < len(src) && src[i+1] == ']' {
				b.WriteByte(c)
				i++
				c = src[i]
			}
		case c == '.':
			b.WriteString(`[^\n]`)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func patternErrorCode(err error) string {
	if errors.Is(err, errNonPortable) {
		return inquiry.ErrCodeNonPortablePattern
	}
	return inquiry.ErrCodeInvalidPattern
}

var patternCache sync.Map // string -> *regexp.Regexp

func compiled(src string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(src); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, err
	}
	patternCache.Store(src, re)
	return re, nil
}
