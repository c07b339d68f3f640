package middleware

import "testing"

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"  Bearer abc.def.ghi  ", "abc.def.ghi", true},
		{"Bearer ", "", false},
		{"Bearer    ", "", false},
		{"", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"abc.def.ghi", "", false},
	}
	for _, tc := range cases {
		got, ok := bearerToken(tc.header)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("bearerToken(%q) = %q, %v; want %q, %v", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
