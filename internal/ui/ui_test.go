package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// mustContain fails t for every want missing from out.
func mustContain(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// mustPrecede fails t unless a appears in out before b.
func mustPrecede(t *testing.T, out, a, b string) {
	t.Helper()
	if strings.Index(out, a) >= strings.Index(out, b) {
		t.Errorf("%q should appear before %q:\n%s", a, b, out)
	}
}

func TestHeaderRender(t *testing.T) {
	h := NewHeader("ssdp publisher", "dp serve",
		Detail{Key: "Interface", Value: "eth0"},
		Detail{Key: "UUID", Value: "1234"},
	).SetWidth(80)

	out := h.Render()
	mustContain(t, out, "SSDP PUBLISHER", "dp serve")
	mustPrecede(t, out, "eth0", "1234")
}

func TestResultDetailsKeepOrder(t *testing.T) {
	r := NewSuccessResult("Published", Detail{Key: "b", Value: "second"}).SetWidth(80)
	r.AddDetail("a", "third")

	out := r.Render()
	mustContain(t, out, "SUCCESS", "Published")
	mustPrecede(t, out, "second", "third")
}

func TestFailureResult(t *testing.T) {
	out := NewFailureResult("Interface unavailable", errors.New("eth9: not found"), "Pick an interface below").
		SetWidth(80).
		Render()

	mustContain(t, out, "FAILED", "eth9: not found", "Troubleshooting:", "Pick an interface below")
}

func TestWarningResult(t *testing.T) {
	out := NewWarningResult("Overwrite", Detail{Key: "Path", Value: "/tmp/x"}).SetWidth(80).Render()
	mustContain(t, out, "WARNING", "/tmp/x")
}

func TestTableRender(t *testing.T) {
	tbl := NewTable("Name", "Address").
		AddRow("eth0", "192.168.1.5/24").
		AddRow("wlan0", "10.0.0.7/8").
		SetWidth(80)

	out := tbl.Render()
	mustContain(t, out, "Name", "Address", "eth0", "192.168.1.5/24", "wlan0", "10.0.0.7/8")
	mustPrecede(t, out, "eth0", "wlan0")
}

func TestTableEmpty(t *testing.T) {
	tbl := NewTable("Name")
	tbl.Empty = "No devices answered"
	mustContain(t, tbl.Render(), "No devices answered")
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(80)

	p.Header("dp", "dp interfaces")
	p.Table(NewTable("Name").AddRow("lo"))
	p.Failure("boom", errors.New("bad"))

	mustContain(t, buf.String(), "dp interfaces", "lo", "bad")
	if p.Writer() != &buf {
		t.Error("Writer() should return the wrapped writer")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			got := Confirm(strings.NewReader(tt.input), &out, "Overwrite config", Detail{Key: "Path", Value: "dp.yaml"})
			if got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			mustContain(t, out.String(), "Overwrite config", "[y/N]")
		})
	}
}

func TestRunWithSpinnerWithoutTerminal(t *testing.T) {
	var out bytes.Buffer
	ran := false

	err := RunWithSpinner(context.Background(), &out, "Searching", func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("RunWithSpinner() error = %v", err)
	}
	if !ran {
		t.Error("task did not run")
	}
	mustContain(t, out.String(), "Searching")

	boom := errors.New("boom")
	err = RunWithSpinner(context.Background(), &out, "Searching", func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("RunWithSpinner() error = %v, want %v", err, boom)
	}
}

func TestSpinnerModel(t *testing.T) {
	m := NewSpinnerModel("Searching")
	if m.Init() == nil {
		t.Error("Init() should start the spinner tick")
	}
	mustContain(t, m.View(), "Searching")

	next, cmd := m.Update(taskDoneMsg{})
	if cmd == nil {
		t.Error("Update(taskDoneMsg) should quit")
	}
	if v := next.View(); v != "" {
		t.Errorf("View() after done = %q, want empty", v)
	}
}
