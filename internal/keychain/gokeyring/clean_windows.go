//go:build windows

package gokeyring

// clean undoes UTF-16 values written by cmdkey, which interleave a NUL after
// every character. Values that are not in that shape come back untouched.
func clean(s string) string {
	if len(s) == 0 || len(s)%2 != 0 {
		return s
	}
	out := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		if s[i+1] != 0 {
			return s
		}
		out = append(out, s[i])
	}
	return string(out)
}
