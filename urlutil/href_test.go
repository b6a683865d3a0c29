package urlutil

import "testing"

func TestParseHref(t *testing.T) {
	base := Record{Scheme: "https", Host: "example.com", Path: "/blog"}

	tests := []struct {
		name string
		href string
		want Record
		ok   bool
	}{
		{
			name: "rooted relative path",
			href: "/about",
			want: Record{Scheme: "https", Host: "example.com", Path: "/about"},
			ok:   true,
		},
		{
			name: "absolute URL",
			href: "https://other.example.com/page",
			want: Record{Scheme: "https", Host: "other.example.com", Path: "/page"},
			ok:   true,
		},
		{
			name: "absolute URL with port",
			href: "http://example.com:8080/x",
			want: Record{Scheme: "http", Host: "example.com", Port: ":8080", Path: "/x"},
			ok:   true,
		},
		{
			name: "escaped scheme separator",
			href: `http:\/\/example.com\/about`,
			want: Record{Scheme: "http", Host: "example.com", Path: "/about"},
			ok:   true,
		},
		{
			name: "html entity for slash",
			href: "https://example.com&#x2F;about",
			want: Record{Scheme: "https", Host: "example.com", Path: "/about"},
			ok:   true,
		},
		{
			name: "trailing slash stripped",
			href: "/about/",
			want: Record{Scheme: "https", Host: "example.com", Path: "/about"},
			ok:   true,
		},
		{
			name: "query string dropped from path",
			href: "/search?q=x",
			want: Record{Scheme: "https", Host: "example.com", Path: "/search"},
			ok:   true,
		},
		{
			name: "trailing backslashes stripped from host",
			href: `https://example.com\\/page`,
			want: Record{Scheme: "https", Host: "example.com", Path: "/page"},
			ok:   true,
		},
		{name: "fragment discarded", href: "#section", ok: false},
		{name: "mailto discarded", href: "mailto:x@y.com", ok: false},
		{name: "tel discarded", href: "tel:+15555550100", ok: false},
		{name: "file scheme discarded", href: "file:///etc/passwd", ok: false},
		{name: "javascript discarded", href: "javascript:void(0)", ok: false},
		{name: "template brace discarded", href: "{{.URL}}", ok: false},
		{name: "plus prefix discarded", href: "+1234", ok: false},
		{name: "empty discarded", href: "", ok: false},
		{name: "bare relative path discarded", href: "contact.html", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseHref(tt.href, base)
			if ok != tt.ok {
				t.Fatalf("ParseHref(%q) ok = %v, want %v", tt.href, ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if got != tt.want {
				t.Errorf("ParseHref(%q) = %+v, want %+v", tt.href, got, tt.want)
			}
		})
	}
}
