package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestMaskKey(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"abc":          "***",
		"+15125550100": "********0100",
	}
	for in, want := range cases {
		if got := MaskKey(in); got != want {
			t.Fatalf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetupFallsBackToInfo(t *testing.T) {
	Setup(Config{Level: "chatty"})
	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("expected info level, got %s", log.GetLevel())
	}

	Setup(Config{Level: "debug", Format: "json"})
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}
	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter")
	}
	Setup(Config{})
}
