package filter

import (
	"reflect"
	"testing"
)

type row struct {
	event string
	sig   string
}

func eventOf(r row) string { return r.event }

var rows = []row{
	{"BUY_TICKETS", "a"},
	{"CLAIM_PRIZE", "b"},
	{"BUY_TICKETS", "c"},
}

func TestProject_PassThrough(t *testing.T) {
	got := Project(rows, All, eventOf)

	if !reflect.DeepEqual(got, rows) {
		t.Errorf("Project(rows, \"\") = %v, want rows unchanged", got)
	}
}

func TestProject_CaseInsensitive(t *testing.T) {
	tests := []struct {
		criterion string
		want      []string
	}{
		{"buy_tickets", []string{"a", "c"}},
		{"BUY_TICKETS", []string{"a", "c"}},
		{"claim_prize", []string{"b"}},
		{"add_prize", nil},
	}

	for _, tt := range tests {
		t.Run(tt.criterion, func(t *testing.T) {
			got := Project(rows, tt.criterion, eventOf)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.sig != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, r.sig, tt.want[i])
				}
			}
		})
	}
}

func TestProject_DoesNotMutate(t *testing.T) {
	input := append([]row(nil), rows...)
	_ = Project(input, "claim_prize", eventOf)

	if !reflect.DeepEqual(input, rows) {
		t.Error("Project() modified its input")
	}
}

func TestOptions(t *testing.T) {
	options := Options([]string{"BUY_TICKETS", "buy_tickets", "ADD_PRIZE", ""}, "All Events")

	want := []Option{
		{Value: All, Label: "All Events"},
		{Value: "buy_tickets", Label: "BUY_TICKETS"},
		{Value: "add_prize", Label: "ADD_PRIZE"},
	}
	if !reflect.DeepEqual(options, want) {
		t.Errorf("Options() = %+v, want %+v", options, want)
	}

	if got := Label(options, "Add_Prize"); got != "ADD_PRIZE" {
		t.Errorf("Label() = %q, want ADD_PRIZE", got)
	}
	if got := Label(options, "unknown"); got != "All Events" {
		t.Errorf("Label(unknown) = %q, want All Events", got)
	}
}
