package notification

import "strings"

// Render substitutes {name} tokens whose name is a key of vars. Everything
// else, including unknown tokens, empty braces and unbalanced braces, is
// copied verbatim. Substituted values are never scanned again.
func Render(body string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(body))

	for i := 0; i < len(body); {
		if body[i] != '{' {
			next := strings.IndexByte(body[i:], '{')
			if next < 0 {
				b.WriteString(body[i:])
				break
			}
			b.WriteString(body[i : i+next])
			i += next
			continue
		}

		end := strings.IndexAny(body[i+1:], "{}")
		if end <= 0 || body[i+1+end] == '{' {
			b.WriteByte('{')
			i++
			continue
		}

		name := body[i+1 : i+1+end]
		tokenEnd := i + end + 2
		if val, ok := vars[name]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(body[i:tokenEnd])
		}
		i = tokenEnd
	}
	return b.String()
}
