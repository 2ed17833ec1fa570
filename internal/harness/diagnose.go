package harness

import "strings"

type Severity string

const (
	SevInfo Severity = "info"
	SevWarn Severity = "warning"
	SevErr  Severity = "error"
)

// Diagnostic explains a failing tuple in terms an operator can act on.
type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Diagnose maps a tuple result onto the known failure signatures. Nil
// for a passing tuple.
func Diagnose(res Result) *Diagnostic {
	if res.Passed {
		return nil
	}
	ev := map[string]any{
		"driver":         res.Driver,
		"pattern":        res.Pattern,
		"bytes_expected": res.BytesExpected,
		"bytes_captured": res.BytesCaptured,
		"error_count":    res.ErrorCount,
	}

	switch {
	case strings.Contains(res.Failure, "rx timeout"):
		return &Diagnostic{
			Severity: SevErr,
			Code:     "rx_timeout",
			Summary:  "nothing arrived on the capture tap before the deadline",
			Detail:   res.Failure,
			LikelyCauses: []string{
				"capture tap attached to a different wire than the driver output",
				"driver transmit failed silently before any edge was emitted",
				"capture timeout margin too small for this strip size",
			},
			SuggestedFixes: []string{
				"check the tap wiring for this driver",
				"raise capture.margin or capture.floor_ms in config.yaml",
			},
			Evidence: ev,
		}

	case res.Failure == "driver not registered":
		return &Diagnostic{
			Severity:     SevErr,
			Code:         "no_driver",
			Summary:      "requested driver is not in the registry",
			LikelyCauses: []string{"hardware backend failed to open and was skipped at startup"},
			SuggestedFixes: []string{
				"check startup warnings for the skipped driver",
				"remove it from the drivers list to silence this tuple",
			},
			Evidence: ev,
		}

	case res.BytesCaptured < res.BytesExpected:
		return &Diagnostic{
			Severity: SevErr,
			Code:     "short_frame",
			Summary:  "fewer bytes decoded than transmitted",
			LikelyCauses: []string{
				"capture stopped early or the final byte was truncated",
				"a mid-frame gap long enough to read as a latch",
			},
			Evidence: ev,
		}

	case res.ErrorCount > 0:
		return &Diagnostic{
			Severity: SevWarn,
			Code:     "marginal_timing",
			Summary:  "pulses fell outside the chipset windows and were recovered by proximity",
			LikelyCauses: []string{
				"jitter or scheduling delay stretched individual pulses",
				"wrong chipset selected for the device under test",
			},
			SuggestedFixes: []string{"rerun with -v to log the offending symbols"},
			Evidence:       ev,
		}
	}

	return &Diagnostic{
		Severity: SevErr,
		Code:     "data_mismatch",
		Summary:  "captured bytes decode cleanly but do not match the pattern",
		LikelyCauses: []string{
			"bit order or channel order mismatch between encoder and device",
			"crosstalk between parallel lanes",
		},
		Evidence: ev,
	}
}
