package wastage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SheetPlan/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		base, extra int
		pct         float64
		justify     bool
		confirm     bool
		wantMessage string
	}{
		{"none", 100, 0, 0, false, false, "Low wastage (<3%)"},
		{"just under 3", 100, 2, 2, false, false, "Low wastage (<3%)"},
		{"exactly 3", 100, 3, 3, false, false, "Wastage within acceptable range (3-10%)"},
		{"exactly 10", 100, 10, 10, false, false, "Wastage within acceptable range (3-10%)"},
		{"over 10", 100, 11, 11, true, false, "Wastage exceeds 10%. Justification required."},
		{"exactly 25", 100, 25, 25, true, false, "Wastage exceeds 10%. Justification required."},
		{"over 25", 100, 26, 26, true, true, "High wastage detected (>25%). Confirmation required."},
		{"rounded", 11, 2, 18.18, true, false, "Wastage exceeds 10%. Justification required."},
		{"rounds down to 10", 25000, 2501, 10, false, false, "Wastage within acceptable range (3-10%)"},
		{"rounds up past 10", 10000, 1001, 10.01, true, false, "Wastage exceeds 10%. Justification required."},
		{"rounds down to 25", 25000, 6251, 25, true, false, "Wastage exceeds 10%. Justification required."},
		{"rounds up to 3", 100000, 2999, 3, false, false, "Wastage within acceptable range (3-10%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Classify(tt.base, tt.extra)
			require.NoError(t, err)
			assert.Equal(t, tt.pct, v.WastagePercentage)
			assert.Equal(t, tt.justify, v.RequiresJustification)
			assert.Equal(t, tt.confirm, v.RequiresConfirmation)
			assert.Equal(t, tt.wantMessage, v.Message)
		})
	}
}

func TestClassify_ConfirmationImpliesJustification(t *testing.T) {
	for extra := 0; extra <= 200; extra++ {
		v, err := Classify(40, extra)
		require.NoError(t, err)
		if v.RequiresConfirmation {
			assert.True(t, v.RequiresJustification, "extra=%d", extra)
		}
	}
}

// The flags and message always agree with the percentage the verdict reports.
func TestClassify_BandMatchesReportedPercentage(t *testing.T) {
	for _, base := range []int{7, 11, 40, 333, 9999, 25000} {
		for extra := 0; extra <= base/2; extra += max(1, base/500) {
			v, err := Classify(base, extra)
			require.NoError(t, err)

			pct := v.WastagePercentage
			assert.Equal(t, pct > ConfirmationThreshold, v.RequiresConfirmation, "%d/%d = %v", extra, base, pct)
			assert.Equal(t, pct > JustificationThreshold, v.RequiresJustification, "%d/%d = %v", extra, base, pct)
			if pct < AcceptableThreshold {
				assert.Equal(t, "Low wastage (<3%)", v.Message, "%d/%d = %v", extra, base, pct)
			}
		}
	}
}

func TestClassify_InvalidInput(t *testing.T) {
	_, err := Classify(0, 5)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = Classify(-3, 1)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = Classify(10, -1)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
