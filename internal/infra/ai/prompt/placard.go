package prompt

import (
	"fmt"
	"time"
)

// PlaceholderLocation is what the classifier is told to emit for location;
// there is no geolocation capability, so the value is fixed.
const PlaceholderLocation = "Fairpark HQ (Detected)"

// Instruction builds the placard-analysis prompt. The reference date is
// pinned into the text so expiry comparison is deterministic for a given
// request. The model is told to emit one raw JSON object with exactly the
// AI-sourced fields of a verdict.
func Instruction(referenceDate time.Time) string {
	date := referenceDate.Format("January 2, 2006")
	return fmt.Sprintf(`You are an AI assistant specialized in analyzing images of official documents. Your task is to examine the provided image of a disabled person parking placard, identify the expiration date, and determine if it is currently valid.

The current date for reference is %s.

Follow these steps:
1. Locate the text within the image that specifies the expiration date.
2. Compare that date to the current date (%s).
3. State clearly whether the placard is "Valid" or "Not Valid".
4. Provide a brief, one-sentence explanation for your determination, mentioning the visible expiration date.

Return a VALID JSON object (no markdown formatting, just the raw JSON) with the following fields:
- isViolation (boolean): true if it appears to be a violation, false otherwise.
- reason (string): A short specific explanation of why it is or isn't a violation.
- licensePlate (string): The license plate number if visible, otherwise "Unknown".
- confidence (number): A value between 0.0 and 1.0 indicating your confidence in the assessment.
- location (string): %q (hardcoded for now as we don't have geo-data).

If it is NOT a vehicle or NOT a parking analysis, return isViolation: false and explain why.`, date, date, PlaceholderLocation)
}
