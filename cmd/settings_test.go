package cmd

import (
	"reflect"
	"testing"

	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

func TestParseFieldValue(t *testing.T) {
	tests := []struct {
		field   settings.Field
		raw     string
		want    any
		wantErr bool
	}{
		{settings.Toggle, "on", true, false},
		{settings.Toggle, "false", false, false},
		{settings.DetectVideoEnd, "NO", false, false},
		{settings.DetectVideoEnd, "maybe", nil, true},
		{settings.Interval, " 12 ", 12, false},
		{settings.ScrollAfter, "0", 0, false},
		{settings.ScrollAfter, "-3", nil, true},
		{settings.Interval, "ten", nil, true},
	}
	for _, tt := range tests {
		got, err := parseFieldValue(tt.field, tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseFieldValue(%s, %q): want error, got %v", tt.field, tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseFieldValue(%s, %q): %v", tt.field, tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("parseFieldValue(%s, %q): want %v, got %v", tt.field, tt.raw, tt.want, got)
		}
	}
}

func TestChangeMessage(t *testing.T) {
	on := settings.Settings{Enabled: true, IntervalSeconds: 5, DetectVideoEnd: true}
	if got := changeMessage(platforms.Instagram, settings.Toggle, on); got.Action != control.Start || !got.Override.Empty() {
		t.Fatalf("toggle on: want bare start, got %+v", got)
	}
	off := on
	off.Enabled = false
	if got := changeMessage(platforms.Instagram, settings.Toggle, off); got.Action != control.Stop {
		t.Fatalf("toggle off: want stop, got %+v", got)
	}

	got := changeMessage(platforms.Instagram, settings.Interval, on)
	want := control.Message{
		Platform: platforms.Instagram,
		Action:   control.Update,
		Override: settings.Override{DetectVideoEnd: settings.Bool(true), ScrollAfterSeconds: settings.Int(0)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("detecting: interval must be left out.\nwant: %s\ngot:  %s", want, got)
	}

	timer := settings.Settings{Enabled: true, IntervalSeconds: 7, ScrollAfterSeconds: 4}
	got = changeMessage(platforms.Facebook, settings.DetectVideoEnd, timer)
	want = control.Message{
		Platform: platforms.Facebook,
		Action:   control.Update,
		Override: settings.Override{IntervalSeconds: settings.Int(7), DetectVideoEnd: settings.Bool(false), ScrollAfterSeconds: settings.Int(4)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("not detecting.\nwant: %s\ngot:  %s", want, got)
	}
}
