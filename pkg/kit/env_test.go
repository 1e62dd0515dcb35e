package kit

import (
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("KIT_BOOL", "TRUE")
	t.Setenv("KIT_BAD_BOOL", "maybe")
	t.Setenv("KIT_INT", "7")
	t.Setenv("KIT_DUR", "90s")
	t.Setenv("KIT_BAD_DUR", "-5s")

	if !GetenvBool("KIT_BOOL", false) {
		t.Fatalf("GetenvBool: want true")
	}
	if !GetenvBool("KIT_BAD_BOOL", true) {
		t.Fatalf("GetenvBool: unparsable should fall back to default")
	}
	if got := GetenvInt("KIT_INT", 0); got != 7 {
		t.Fatalf("GetenvInt = %d, want 7", got)
	}
	if got := GetenvDuration("KIT_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("GetenvDuration = %v, want 90s", got)
	}
	if got := GetenvDuration("KIT_BAD_DUR", time.Second); got != time.Second {
		t.Fatalf("GetenvDuration negative = %v, want default", got)
	}
	if got := Getenv("KIT_UNSET_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("Getenv = %q, want fallback", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		" WARN ": zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"":       zapcore.InfoLevel,
		"loud":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
