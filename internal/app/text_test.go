package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"<p>Hello</p><p>World</p>", "Hello\nWorld"},
		{"Line<br/>break &lt;3", "Line\nbreak <3"},
		{"<div><b>Bold</b>   text</div>", "Bold text"},
		{"<p>a</p>\n\n\n\n<p>b</p>", "a\n\nb"},
		{"Price < 5 & qty > 2", "Price < 5 & qty > 2"},
		{"<p>1 &lt; 2 &amp;&amp; 3 > 2</p>", "1 < 2 && 3 > 2"},
		{"<style>p{color:red}</style><p>Hi</p><script>alert('x')</script>", "Hi"},
		{"<ul><li>one</li><li>two</li></ul>", "one\ntwo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, plainText(tt.in), tt.in)
	}
}
