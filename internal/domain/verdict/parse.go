package verdict

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// extractFunc is one candidate-extraction strategy over the raw reply.
// Strategies are pure and ordered; the first match wins.
type extractFunc func(text string) (string, bool)

var extractors = []extractFunc{
	extractFencedJSON,
	extractBraceSpan,
}

var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// extractFencedJSON pulls the body of a ```json fenced code block.
func extractFencedJSON(text string) (string, bool) {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractBraceSpan falls back to the substring from the first '{' to the
// last '}'.
func extractBraceSpan(text string) (string, bool) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return "", false
	}
	return text[first : last+1], true
}

// Parse extracts a structured Draft from the classifier's free-form reply.
// The model is instructed to emit a single raw JSON object, but replies may
// wrap it in prose or a code fence; extraction tolerates both. The full raw
// text is attached to the draft, and to the error when extraction or
// decoding fails.
func Parse(rawText string) (*Draft, error) {
	var candidate string
	for _, extract := range extractors {
		if c, ok := extract(rawText); ok {
			candidate = c
			break
		}
	}
	if candidate == "" {
		return nil, &ParseError{Raw: rawText, err: ErrNoJSONFound}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return nil, &ParseError{Raw: rawText, err: fmt.Errorf("%w: %v", ErrMalformedJSON, err)}
	}

	d := &Draft{RawText: rawText}
	d.IsViolation = boolField(fields, "isViolation", false)
	d.Reason = stringField(fields, "reason", "")
	d.LicensePlate = stringField(fields, "licensePlate", UnknownPlate)
	d.Location = stringField(fields, "location", UnknownLocation)
	d.Confidence = confidenceField(fields, d)
	return d, nil
}

func stringField(fields map[string]any, key, fallback string) string {
	v, ok := fields[key]
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func boolField(fields map[string]any, key string, fallback bool) bool {
	v, ok := fields[key]
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

// confidenceField coerces confidence into [0,1]. Out-of-range values are
// clamped, non-numeric or absent values default to 0.0; either adjustment
// is recorded on the draft's warnings so the reviewer can see the reported
// value was not taken as-is.
func confidenceField(fields map[string]any, d *Draft) float64 {
	v, ok := fields["confidence"]
	if !ok {
		d.Warnings = append(d.Warnings, "confidence missing, defaulted to 0.0")
		return 0
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			d.Warnings = append(d.Warnings, fmt.Sprintf("confidence %q not numeric, defaulted to 0.0", n))
			return 0
		}
		f = parsed
	default:
		d.Warnings = append(d.Warnings, fmt.Sprintf("confidence %v not numeric, defaulted to 0.0", v))
		return 0
	}
	if f < 0 {
		d.Warnings = append(d.Warnings, fmt.Sprintf("confidence %v clamped to 0.0", f))
		return 0
	}
	if f > 1 {
		d.Warnings = append(d.Warnings, fmt.Sprintf("confidence %v clamped to 1.0", f))
		return 1
	}
	return f
}
