package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("default logger should discard everything")
	}
}

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	if err := Initialize("loud"); err == nil {
		t.Error("Initialize(\"loud\") should fail")
	}
}

func TestLogSSDPMessage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogSSDPMessage("sent", "239.255.255.250:1900", []byte("NOTIFY * HTTP/1.1\r\nHOST: x\r\n\r\n"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if got := fields["start_line"]; got != "NOTIFY * HTTP/1.1" {
		t.Errorf("start_line = %v, want %q", got, "NOTIFY * HTTP/1.1")
	}
	if got := fields["direction"]; got != "sent" {
		t.Errorf("direction = %v, want %q", got, "sent")
	}
}

func TestLogSSDPMessageSkippedAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogSSDPMessage("sent", "peer", []byte("NOTIFY * HTTP/1.1\r\n\r\n"))
	if logs.Len() != 0 {
		t.Errorf("got %d entries at info level, want 0", logs.Len())
	}
}

func TestAsciiDump(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte{'a', 'b', 0x01}, "ab."},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := asciiDump(tt.in); got != tt.want {
			t.Errorf("asciiDump(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
