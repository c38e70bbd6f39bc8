package testutils

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// MustJSON marshals v or panics; for test data setup only.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// JSONAsserter compares JSON documents structurally and reports
// readable diffs on mismatch.
type JSONAsserter struct {
	t *testing.T
}

// NewJSONAsserter creates a new JSONAsserter.
func NewJSONAsserter(t *testing.T) *JSONAsserter {
	return &JSONAsserter{t: t}
}

// Assert compares actualJSON against expectedJSON, ignoring key order.
// Arrays are compared in order. On mismatch the test fails with a
// structural diff; when either side is not valid JSON, a plain unified
// text diff is reported instead.
func (ja *JSONAsserter) Assert(actualJSON, expectedJSON string) {
	ja.t.Helper()

	// gojsondiff compares objects, so wrap both documents; this also
	// makes top-level arrays comparable.
	expected := []byte(`{"root":` + expectedJSON + `}`)
	actual := []byte(`{"root":` + actualJSON + `}`)

	diff, err := gojsondiff.New().Compare(expected, actual)
	if err != nil {
		ja.t.Errorf("JSON assertion fell back to text diff (%v):\n%s", err, textDiff(expectedJSON, actualJSON))
		return
	}
	if !diff.Modified() {
		return
	}

	var left map[string]interface{}
	if err := json.Unmarshal(expected, &left); err != nil {
		ja.t.Fatalf("unmarshal expected JSON: %v", err)
	}

	rendered, err := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       false,
	}).Format(diff)
	if err != nil {
		rendered = textDiff(expectedJSON, actualJSON)
	}
	ja.t.Errorf("JSON assertion failed:\n%s", rendered)
}

func textDiff(expected, actual string) string {
	edits := myers.ComputeEdits(span.URIFromPath("expected"), expected, actual)
	return fmt.Sprint(gotextdiff.ToUnified("expected", "actual", expected, edits))
}
