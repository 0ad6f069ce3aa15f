package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		body string
		vars map[string]string
		want string
	}{
		{
			name: "all placeholders matched",
			body: "Hi {name}, code {code}",
			vars: map[string]string{"name": "Ana", "code": "AB12"},
			want: "Hi Ana, code AB12",
		},
		{
			name: "unmatched placeholder kept",
			body: "Hi {name}, see {unknown}",
			vars: map[string]string{"name": "Ana"},
			want: "Hi Ana, see {unknown}",
		},
		{
			name: "repeated placeholder",
			body: "{name}/{name}",
			vars: map[string]string{"name": "x"},
			want: "x/x",
		},
		{
			name: "value containing a token is not rescanned",
			body: "Hi {name}",
			vars: map[string]string{"name": "{code}", "code": "AB12"},
			want: "Hi {code}",
		},
		{
			name: "empty braces",
			body: "a {} b",
			vars: map[string]string{"": "boom"},
			want: "a {} b",
		},
		{
			name: "unbalanced open brace",
			body: "link {baseUrl/{code}",
			vars: map[string]string{"code": "C1", "baseUrl": "u"},
			want: "link {baseUrl/C1",
		},
		{
			name: "trailing open brace",
			body: "end {",
			want: "end {",
		},
		{
			name: "stray close brace",
			body: "a } {name}",
			vars: map[string]string{"name": "Ana"},
			want: "a } Ana",
		},
		{
			name: "url template",
			body: "🔗 {baseUrl}/{code}",
			vars: map[string]string{"baseUrl": "https://rsvp.example.org", "code": "0A1B"},
			want: "🔗 https://rsvp.example.org/0A1B",
		},
		{
			name: "nil vars",
			body: "Hi {name}",
			want: "Hi {name}",
		},
		{
			name: "empty value replaces",
			body: "[{name}]",
			vars: map[string]string{"name": ""},
			want: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.body, tt.vars))
		})
	}
}
