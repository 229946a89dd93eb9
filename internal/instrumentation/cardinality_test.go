package instrumentation

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/mcp", "/mcp"},
		{"/metrics", "/metrics"},
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/healthz/detailed", "/healthz/detailed"},
		{"/", PathOther},
		{"", PathOther},
		{"/mcp/", PathOther},
		{"/wp-login.php", PathOther},
		{"/healthz/../etc/passwd", PathOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := NormalizePath(tt.path); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestOperationConstants(t *testing.T) {
	ops := map[string]string{
		"search": OperationSearch,
		"get":    OperationGet,
		"lists":  OperationLists,
	}
	for want, got := range ops {
		if got != want {
			t.Errorf("operation constant = %q, want %q", got, want)
		}
	}
}
