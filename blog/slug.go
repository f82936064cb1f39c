package blog

import "strings"

// Slugify converts a title or tag name to a URL-safe slug: lowercase ASCII
// letters and digits, with every other run of characters collapsed to a
// single '-' and no leading or trailing '-'.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	sep := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			sep = false
		default:
			sep = true
		}
	}
	return b.String()
}
