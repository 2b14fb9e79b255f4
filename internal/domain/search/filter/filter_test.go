package filter

import (
	"reflect"
	"strings"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []any
	}{
		{"nil", nil, nil},
		{"string", "a", []any{"a"}},
		{"int", 5, []any{5}},
		{"any slice", []any{"a", 1}, []any{"a", 1}},
		{"string slice", []string{"a", "b"}, []any{"a", "b"}},
		{"int slice", []int{1, 2}, []any{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coerce(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Coerce(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSet_InsertionOrderAndReplace(t *testing.T) {
	var s Set
	if err := s.Add("B", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("A", []string{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("B", 2); err != nil {
		t.Fatal(err)
	}

	conds := s.Conditions()
	if len(conds) != 2 {
		t.Fatalf("len = %d", len(conds))
	}
	if conds[0].Field() != "B" || !reflect.DeepEqual(conds[0].Values(), []any{2}) {
		t.Errorf("first = %s %v", conds[0].Field(), conds[0].Values())
	}
	if conds[1].Field() != "A" {
		t.Errorf("second = %s", conds[1].Field())
	}
	if v, ok := s.Get("A"); !ok || len(v) != 2 {
		t.Errorf("Get(A) = %v, %v", v, ok)
	}
}

func TestSet_Errors(t *testing.T) {
	var s Set
	if err := s.Add("", "x"); err == nil {
		t.Error("expected error for empty field")
	}
	if err := s.Add("A", nil); err == nil || !strings.Contains(err.Error(), "value is required") {
		t.Errorf("err = %v", err)
	}
	if err := s.Add("A", []string{}); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestSet_MaxConditions(t *testing.T) {
	var s Set
	for i := 0; i < MaxConditionsPerGroup; i++ {
		if err := s.Add(strings.Repeat("f", i+1), "v"); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}
	if err := s.Add("overflow", "v"); err == nil {
		t.Error("expected max conditions error")
	}
	if err := s.Add("f", "replaced"); err != nil {
		t.Errorf("replacing existing field should succeed: %v", err)
	}
}
