package smtp

import (
	"testing"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/outputs/email"
)

func TestIsLocalDevSMTPHost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"mailpit", true},
		{"smtp.example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isLocalDevSMTPHost(tc.host); got != tc.want {
			t.Fatalf("isLocalDevSMTPHost(%q)=%v want %v", tc.host, got, tc.want)
		}
	}
}

func TestNewSenderResolvesTLSMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		port int
		mode string
		want TLSMode
	}{
		{port: 465, want: TLSModeImplicit},
		{port: 587, want: TLSModeStartTLS},
		{port: 1025, mode: "off", want: TLSModeDisabled},
		{port: 2525, mode: "SMTPS", want: TLSModeImplicit},
	}
	for _, tc := range cases {
		s, err := NewSender(config.SMTPEnvConfig{Host: "smtp.example.com", Port: tc.port, TLSMode: tc.mode})
		if err != nil {
			t.Fatalf("new sender: %v", err)
		}
		if s.mode != tc.want {
			t.Fatalf("port %d mode %q: got %s want %s", tc.port, tc.mode, s.mode, tc.want)
		}
	}
}

func TestNewSenderRejectsBadConfig(t *testing.T) {
	t.Parallel()

	bad := []config.SMTPEnvConfig{
		{Port: 25},
		{Host: "smtp.example.com"},
		{Host: "smtp.example.com", Port: 25, TLSMode: "sometimes"},
	}
	for _, cfg := range bad {
		if _, err := NewSender(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestBuildMessageRejectsBadAddress(t *testing.T) {
	t.Parallel()

	if _, err := buildMessage(email.Message{From: "not an address", To: "ops@example.com"}); err == nil {
		t.Fatalf("expected invalid from error")
	}
	if _, err := buildMessage(email.Message{From: "bot@example.com", To: "ops@example.com", HTMLBody: "<p>x</p>", TextBody: "x"}); err != nil {
		t.Fatalf("build: %v", err)
	}
}
