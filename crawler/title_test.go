package crawler

import "testing"

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`<html><head><title>Hello World</title></head><body></body></html>`, "Hello World"},
		{`<html><head></head><body>no title</body></html>`, ""},
		{`<title>  Padded  </title>`, "Padded"},
	}
	for _, tt := range tests {
		if got := ExtractTitle(tt.body); got != tt.want {
			t.Errorf("ExtractTitle(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
