package validation

import (
	"testing"

	"github.com/blaisecz/nap-planner/internal/domain"
)

func TestValidate_CreateChild(t *testing.T) {
	tests := []struct {
		name      string
		req       domain.CreateChildRequest
		wantField string
	}{
		{"valid", domain.CreateChildRequest{Name: "Mia", Timezone: "Europe/Prague"}, ""},
		{"missing name", domain.CreateChildRequest{Timezone: "UTC"}, "name"},
		{"bad timezone", domain.CreateChildRequest{Name: "Mia", Timezone: "Mars/Olympus"}, "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.req)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("Validate() = %v, want none", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Field != tt.wantField {
				t.Fatalf("Validate() = %v, want one error on %s", errs, tt.wantField)
			}
		})
	}
}

func TestValidate_HHMM(t *testing.T) {
	bad := "7:30"
	patch := domain.TransitionPatch{NewNapTime: &bad}

	errs := Validate(&patch)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %v, want one error", errs)
	}
	if errs[0].Field != "new_nap_time" {
		t.Errorf("Field = %q, want new_nap_time", errs[0].Field)
	}
	if errs[0].Message != "must be a time in HH:mm format" {
		t.Errorf("Message = %q", errs[0].Message)
	}

	good := "12:15"
	patch.NewNapTime = &good
	if errs := Validate(&patch); len(errs) != 0 {
		t.Errorf("Validate() = %v, want none", errs)
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("PutDownAt"); got != "put_down_at" {
		t.Errorf("toSnakeCase() = %q", got)
	}
}
