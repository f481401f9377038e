package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLendingConfig(t *testing.T) {
	t.Run("defaults to the daily profile", func(t *testing.T) {
		lending, err := loadLendingConfig()
		require.NoError(t, err)

		assert.Equal(t, "daily", lending.Profile)
		assert.Equal(t, 24*60, lending.Policy.BlockMinutes)
		assert.Equal(t, 15.0, lending.Policy.PerBlock)
		assert.Equal(t, 24*time.Hour, lending.Policy.LoanPeriod)
		assert.Equal(t, time.Hour, lending.Policy.ReminderLead)
		assert.Equal(t, "@every 1m", lending.SweepSpec)
		assert.Equal(t, "0 18 * * *", lending.DigestSpec)
	})

	t.Run("fast profile", func(t *testing.T) {
		t.Setenv("LENDING_PROFILE", "fast")

		lending, err := loadLendingConfig()
		require.NoError(t, err)

		assert.Equal(t, 10, lending.Policy.BlockMinutes)
		assert.Equal(t, 5.0, lending.Policy.PerBlock)
		assert.Equal(t, 4*time.Minute, lending.Policy.LoanPeriod)
		assert.Equal(t, time.Minute, lending.Policy.ReminderLead)
	})

	t.Run("per-field overrides on top of a profile", func(t *testing.T) {
		t.Setenv("LENDING_PROFILE", "fast")
		t.Setenv("FINE_PER_BLOCK", "2.5")
		t.Setenv("LOAN_PERIOD_MINUTES", "30")

		lending, err := loadLendingConfig()
		require.NoError(t, err)

		assert.Equal(t, 2.5, lending.Policy.PerBlock)
		assert.Equal(t, 30*time.Minute, lending.Policy.LoanPeriod)
		assert.Equal(t, 10, lending.Policy.BlockMinutes, "unset fields keep the profile value")
	})

	t.Run("unknown profile is rejected", func(t *testing.T) {
		t.Setenv("LENDING_PROFILE", "weekly")

		_, err := loadLendingConfig()
		assert.Error(t, err)
	})

	t.Run("malformed overrides are rejected", func(t *testing.T) {
		t.Setenv("FINE_BLOCK_MINUTES", "zero")
		_, err := loadLendingConfig()
		assert.Error(t, err)
	})

	t.Run("negative fine is rejected", func(t *testing.T) {
		t.Setenv("FINE_PER_BLOCK", "-1")
		_, err := loadLendingConfig()
		assert.Error(t, err)
	})
}
