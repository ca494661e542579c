package prompt

import (
	"strings"
	"testing"
	"time"
)

func TestInstructionPinsReferenceDate(t *testing.T) {
	p := Instruction(time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(p, "December 6, 2025") {
		t.Error("reference date not pinned into the prompt")
	}
}

func TestInstructionNamesAllFields(t *testing.T) {
	p := Instruction(time.Now())
	for _, field := range []string{"isViolation", "reason", "licensePlate", "confidence", "location"} {
		if !strings.Contains(p, field) {
			t.Errorf("prompt missing field %q", field)
		}
	}
	if !strings.Contains(p, PlaceholderLocation) {
		t.Error("prompt missing the fixed placeholder location")
	}
	if !strings.Contains(p, "raw JSON") {
		t.Error("prompt must demand a raw JSON object")
	}
}
