package security

import (
	"strings"
	"testing"
)

func TestInputValidator_Valid(t *testing.T) {
	iv := NewInputValidator()

	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "plain handle", input: "myhandle", want: true},
		{name: "handle with at", input: "@my_handle2", want: true},
		{name: "cyrillic", input: "Камрон", want: true},
		{name: "exactly max", input: strings.Repeat("a", DefaultMaxLength), want: true},
		{name: "max in runes not bytes", input: strings.Repeat("ж", DefaultMaxLength), want: true},
		{name: "empty", input: "", want: false},
		{name: "too long", input: strings.Repeat("a", DefaultMaxLength+1), want: false},
		{name: "script tag", input: "<script>alert(1)", want: false},
		{name: "script tag upper", input: "<SCRIPT>", want: false},
		{name: "path traversal", input: "../etc/passwd", want: false},
		{name: "semicolon", input: "a;b", want: false},
		{name: "sql comment", input: "name--", want: false},
		{name: "single dash allowed", input: "my-handle", want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := iv.Valid(tc.input); got != tc.want {
				t.Errorf("Valid(%q) = %t, want %t", tc.input, got, tc.want)
			}
		})
	}
}

func TestInputValidator_ValidN(t *testing.T) {
	iv := NewInputValidator()

	if !iv.ValidN("abc", 3) {
		t.Error("expected text at limit to pass")
	}
	if iv.ValidN("abcd", 3) {
		t.Error("expected text over limit to fail")
	}
	if iv.ValidN("abc", 0) {
		t.Error("expected non-positive limit to reject everything")
	}
}
