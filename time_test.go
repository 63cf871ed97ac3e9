package pageauth_test

import (
	"testing"
	"time"

	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	tests := []struct {
		name          string
		inputTime     time.Time
		thresholdExpr string
		expected      bool
		expectErr     bool
	}{
		{
			name:          "Within 1 hour threshold",
			inputTime:     time.Now().Add(-30 * time.Minute),
			thresholdExpr: "1h",
			expected:      true,
		},
		{
			name:          "Outside 1 hour threshold",
			inputTime:     time.Now().Add(-90 * time.Minute),
			thresholdExpr: "1h",
			expected:      false,
		},
		{
			name:          "Within 24 hour threshold",
			inputTime:     time.Now().Add(-23 * time.Hour),
			thresholdExpr: "24h",
			expected:      true,
		},
		{
			name:          "Outside 24 hour threshold",
			inputTime:     time.Now().Add(-25 * time.Hour),
			thresholdExpr: "24h",
			expected:      false,
		},
		{
			name:          "Invalid duration expression",
			inputTime:     time.Now(),
			thresholdExpr: "one day",
			expectErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pageauth.IsWithinThresholdPeriod(tt.inputTime, tt.thresholdExpr)

			if tt.expectErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	outside, err := pageauth.IsOutsideThresholdPeriod(time.Now().Add(-2*time.Hour), "1h")
	assert.NoError(t, err)
	assert.True(t, outside)

	outside, err = pageauth.IsOutsideThresholdPeriod(time.Now(), "1h")
	assert.NoError(t, err)
	assert.False(t, outside)

	_, err = pageauth.IsOutsideThresholdPeriod(time.Now(), "bogus")
	assert.Error(t, err)
}
