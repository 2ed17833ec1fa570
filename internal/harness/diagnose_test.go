package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnoseNilForPass(t *testing.T) {
	assert.Nil(t, Diagnose(Result{Passed: true}))
}

func TestDiagnoseSignatures(t *testing.T) {
	cases := []struct {
		res  Result
		code string
	}{
		{Result{Failure: "rx timeout on lane 0"}, "rx_timeout"},
		{Result{Failure: "driver not registered"}, "no_driver"},
		{Result{BytesExpected: 30, BytesCaptured: 27}, "short_frame"},
		{Result{BytesExpected: 30, BytesCaptured: 30, ErrorCount: 2}, "marginal_timing"},
		{Result{BytesExpected: 30, BytesCaptured: 30}, "data_mismatch"},
	}
	for _, c := range cases {
		d := Diagnose(c.res)
		assert.NotNil(t, d, c.code)
		assert.Equal(t, c.code, d.Code)
		assert.NotEmpty(t, d.Summary)
	}
}
