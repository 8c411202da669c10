package searchparams

const upperhex = "0123456789ABCDEF"

// EncodeComponent percent-encodes s the way browsers encode a single URI
// component: letters, digits and -_.!~*'() pass through, every other byte of
// the UTF-8 encoding becomes %XX.
func EncodeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
