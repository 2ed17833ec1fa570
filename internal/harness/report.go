package harness

import (
	"fmt"
	"strings"
)

// Result is the machine-readable outcome of one matrix tuple.
type Result struct {
	Driver        string   `json:"driver"`
	Lanes         int      `json:"lanes"`
	StripSize     int      `json:"strip_size"`
	Pattern       string   `json:"pattern"`
	BytesExpected int      `json:"bytes_expected"`
	BytesCaptured int      `json:"bytes_captured"`
	LedsMatched   int      `json:"leds_matched"`
	LedsTotal     int      `json:"leds_total"`
	ErrorCount    int      `json:"error_count"`
	Passed        bool     `json:"passed"`
	Failure       string   `json:"failure,omitempty"`
	DecodeErrors  []string `json:"decode_errors,omitempty"`
}

func (r Result) fail(reason string) Result {
	r.Failure = reason
	r.Passed = false
	return r
}

// Accuracy is the matched-LED ratio in percent.
func (r Result) Accuracy() float64 {
	if r.LedsTotal == 0 {
		return 0
	}
	return 100 * float64(r.LedsMatched) / float64(r.LedsTotal)
}

// Verdict renders the reference matrix line for this tuple, e.g.
// "10/10 LEDs match, 100.0% accuracy, PASS".
func (r Result) Verdict() string {
	if r.Failure != "" {
		return fmt.Sprintf("FAIL (%s)", r.Failure)
	}
	verdict := "FAIL"
	if r.Passed {
		verdict = "PASS"
	}
	return fmt.Sprintf("%d/%d LEDs match, %.1f%% accuracy, %s",
		r.LedsMatched, r.LedsTotal, r.Accuracy(), verdict)
}

// Report aggregates the full matrix.
type Report struct {
	Results   []Result `json:"results"`
	Total     int      `json:"total"`
	PassCount int      `json:"pass_count"`
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	r.Total++
	if res.Passed {
		r.PassCount++
	}
}

// Passed reports overall suite status: the AND of every tuple.
func (r Report) Passed() bool {
	return r.Total > 0 && r.PassCount == r.Total
}

// Summary renders the familiar "N/M tests passed" trailer.
func (r Report) Summary() string {
	status := "FAIL"
	if r.Passed() {
		status = "PASS"
	}
	return fmt.Sprintf("%d/%d tests passed: %s", r.PassCount, r.Total, status)
}

// String renders the per-tuple table plus the summary.
func (r Report) String() string {
	var sb strings.Builder
	for _, res := range r.Results {
		fmt.Fprintf(&sb, "%-12s lanes=%-2d leds=%-4d pattern=%s  %s\n",
			res.Driver, res.Lanes, res.StripSize, res.Pattern, res.Verdict())
	}
	sb.WriteString(r.Summary())
	return sb.String()
}
