package commands

import (
	"errors"
	"testing"
)

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		args []string
		want int64
	}{
		{[]string{"5"}, 5},
		{[]string{"#12"}, 12},
		{[]string{" 7 "}, 7},
		{[]string{"3", "DONE"}, 3},
	}

	for _, tt := range tests {
		got, err := ParseTaskID(tt.args)
		if err != nil {
			t.Errorf("%v: unexpected error: %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.args, tt.want, got)
		}
	}
}

func TestParseTaskID_Required(t *testing.T) {
	for _, args := range [][]string{nil, {""}, {"  "}} {
		if _, err := ParseTaskID(args); !errors.Is(err, ErrTaskIDRequired) {
			t.Errorf("%q: expected ErrTaskIDRequired, got %v", args, err)
		}
	}
}

func TestParseTaskID_Invalid(t *testing.T) {
	for _, raw := range []string{"0", "-1", "a1", "#", "##3", "1.5", "٣", "99999999999999999999"} {
		_, err := ParseTaskID([]string{raw})
		if err == nil {
			t.Errorf("%q: expected error", raw)
			continue
		}
		want := "invalid task id: " + raw
		if err.Error() != want {
			t.Errorf("%q: expected %q, got %q", raw, want, err.Error())
		}
	}
}
