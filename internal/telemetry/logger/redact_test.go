package logger

import "testing"

// TestRedactString tests manual value redaction.
func TestRedactString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"long token", "gstk_AAAABBBBCCCCDDDDEEEEFFFFGGGGHHHHIIIIJJJ", "gstk_AAA...JJJ"},
		{"short token", "gstk_abc", "gstk_***"},
		{"plain value", "hello-world", "hello-world"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactString(tt.in); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestIsSensitiveKey tests key pattern detection.
func TestIsSensitiveKey(t *testing.T) {
	sensitive := []string{"password", "Password", "user_password", "token", "client_secret", "authorization", "bearer"}
	for _, k := range sensitive {
		if !IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = false, want true", k)
		}
	}

	benign := []string{"username", "addr", "method", "path", "status"}
	for _, k := range benign {
		if IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = true, want false", k)
		}
	}
}

// TestIsSensitiveValue tests value prefix detection.
func TestIsSensitiveValue(t *testing.T) {
	if !IsSensitiveValue("gstk_something") {
		t.Error("gstk_ prefixed value not detected")
	}
	if IsSensitiveValue("plain") {
		t.Error("plain value flagged as sensitive")
	}
}
