package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Field string // expectation key, e.g. "effects"
	Diff  string // go-cmp diff, (-want +got)
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s mismatch (-want +got):\n%s", e.Field, e.Diff)
}

func check(field string, want, got any, opts ...cmp.Option) error {
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		return &AssertionError{Field: field, Diff: diff}
	}
	return nil
}

// evaluateStep checks every set field of expect against sr and returns the
// failure messages.
func evaluateStep(sr StepResult, expect *Expect) []string {
	var errs []error

	if expect.Status != "" {
		errs = append(errs, check("status", expect.Status, sr.Status()))
	}
	if expect.Error != "" || sr.Error != "" {
		errs = append(errs, check("error", expect.Error, sr.Error))
	}
	if expect.Host != "" {
		errs = append(errs, check("host", expect.Host, sr.Host))
	}

	var labels []string
	counts := map[string]int{}
	units, slices := 0, 0
	if sr.Trace != nil {
		labels = sr.Trace.Labels()
		for _, e := range sr.Trace.Effects {
			counts[e.Effect]++
		}
		units, slices = sr.Trace.Units, sr.Trace.Slices
	}

	if expect.Effects != nil {
		errs = append(errs, check("effects", expect.Effects, labels, cmpopts.EquateEmpty()))
	}
	if len(expect.Counts) > 0 {
		got := make(map[string]int, len(expect.Counts))
		for name := range expect.Counts {
			got[name] = counts[name]
		}
		errs = append(errs, check("counts", expect.Counts, got))
	}
	if expect.Units > 0 {
		errs = append(errs, check("units", expect.Units, units))
	}
	if expect.Slices > 0 {
		errs = append(errs, check("slices", expect.Slices, slices))
	}

	var msgs []string
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	sort.Strings(msgs)
	return msgs
}

// Summary formats a result's failures as one block of text.
func (r *Result) Summary() string {
	if r.Pass {
		return "PASS"
	}
	return "FAIL\n" + strings.Join(r.Errors, "\n")
}
