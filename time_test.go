package mctl

import (
	"context"
	"testing"
	"time"
)

func TestUnixTime(t *testing.T) {
	now := time.Now()
	u := AsUnixTime(now)
	if got := u.Time().Unix(); got != now.Unix() {
		t.Fatalf("want %d, got %d", now.Unix(), got)
	}
	if !UnixTime(0).IsZero() {
		t.Fatal("zero value must be zero")
	}
	if got := UnixTime(100).Add(time.Minute); got != 160 {
		t.Fatalf("want 160, got %d", got)
	}
	if err := UnixTime(-5).Validate(); err == nil {
		t.Fatal("negative time must not validate")
	}
}

func TestUnixTimeElapsed(t *testing.T) {
	if UnixTime(100).Elapsed(99) {
		t.Fatal("future time must not be elapsed")
	}
	if !UnixTime(100).Elapsed(100) {
		t.Fatal("boundary is inclusive")
	}
	if !UnixTime(100).Elapsed(101) {
		t.Fatal("past time must be elapsed")
	}
}

func TestUnixTimeUnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		raw     string
		wantErr bool
		want    UnixTime
	}{
		"number":       {raw: "1234567", want: 1234567},
		"time string":  {raw: `"2009-11-10T23:00:00Z"`, want: 1257894000},
		"negative":     {raw: "-4", wantErr: true},
		"garbage":      {raw: `"not a time"`, wantErr: true},
		"zero allowed": {raw: "0", want: 0},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got UnixTime
			err := got.UnmarshalJSON([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Now()
	ctx := WithBlockTime(context.Background(), now)

	if IsExpired(ctx, AsUnixTime(now.Add(time.Hour))) {
		t.Fatal("future time must not be expired")
	}
	if !IsExpired(ctx, AsUnixTime(now.Add(-time.Hour))) {
		t.Fatal("past time must be expired")
	}
	// Expiration is inclusive of the current moment.
	if !IsExpired(ctx, AsUnixTime(now)) {
		t.Fatal("present time must be expired")
	}
}
