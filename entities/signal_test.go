package entities

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseSignalType_ClosedSet(t *testing.T) {
	for _, valid := range []string{"state_change", "error", "power"} {
		st, err := ParseSignalType(valid)
		if err != nil {
			t.Fatalf("ParseSignalType(%q) returned error: %v", valid, err)
		}
		if st.String() != valid {
			t.Fatalf("ParseSignalType(%q) = %q", valid, st)
		}
	}
}

func TestParseSignalType_Rejects(t *testing.T) {
	for _, invalid := range []string{"", "temperature", "POWER", "state-change", "power "} {
		_, err := ParseSignalType(invalid)
		if !errors.Is(err, ErrInvalidSignalType) {
			t.Fatalf("ParseSignalType(%q) = %v, want ErrInvalidSignalType", invalid, err)
		}
	}
}

func TestSignalTypes_MatchesValid(t *testing.T) {
	types := SignalTypes()
	if len(types) != 3 {
		t.Fatalf("expected 3 signal types, got %d", len(types))
	}
	for _, st := range types {
		if !st.Valid() {
			t.Fatalf("SignalTypes() contains invalid type %q", st)
		}
	}
}

func TestSignal_JSONShape(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	raw, err := json.Marshal(Signal{ID: 7, SignalType: SignalPower, Value: 42.5, Timestamp: ts})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"id":7`, `"signal_type":"power"`, `"value":42.5`, `"timestamp":"2025-03-14T09:26:53Z"`} {
		if !strings.Contains(string(raw), field) {
			t.Fatalf("serialized signal %s missing %s", raw, field)
		}
	}
}
