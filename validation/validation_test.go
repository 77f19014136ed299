package validation

import "testing"

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("customer", "  ", v)
	Required("mode", "UPI", v)
	if v.Empty() {
		t.Fatalf("blank value must violate")
	}
	if _, ok := v["customer"]; !ok {
		t.Fatalf("customer should be flagged")
	}
	if _, ok := v["mode"]; ok {
		t.Fatalf("mode should not be flagged")
	}
}

func TestNonNegative(t *testing.T) {
	v := Violations{}
	NonNegativeInt("qty", -1, v)
	NonNegativeFloat("rate", -0.5, v)
	NonNegativeInt("ok_qty", 0, v)
	NonNegativeFloat("ok_rate", 12.5, v)
	if len(v) != 2 {
		t.Fatalf("want 2 violations, got %d: %v", len(v), v)
	}
}
