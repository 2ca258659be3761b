package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		args    []string
		want    command
		wantErr bool
	}{
		{args: nil, want: command{action: "up"}},
		{args: []string{"down"}, want: command{action: "down"}},
		{args: []string{"steps", "-1"}, want: command{action: "steps", arg: -1}},
		{args: []string{"force", "1"}, want: command{action: "force", arg: 1}},
		{args: []string{"force"}, wantErr: true},
		{args: []string{"steps", "x"}, wantErr: true},
		{args: []string{"up", "2"}, wantErr: true},
		{args: []string{"seed"}, wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseCommand(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseCommand(%v): expected error", tc.args)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseCommand(%v) returned error: %v", tc.args, err)
		}
		if got != tc.want {
			t.Fatalf("parseCommand(%v) = %+v, want %+v", tc.args, got, tc.want)
		}
	}
}

func TestEffectiveConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "from-env.yaml")

	if got := effectiveConfigPath("flag.yaml"); got != "flag.yaml" {
		t.Fatalf("expected flag value, got %s", got)
	}
	if got := effectiveConfigPath(""); got != "from-env.yaml" {
		t.Fatalf("expected env value, got %s", got)
	}
}

func TestIgnoreNoChange(t *testing.T) {
	t.Parallel()

	if err := ignoreNoChange(migrate.ErrNoChange); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	boom := errors.New("boom")
	if err := ignoreNoChange(boom); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
