package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompany(t *testing.T) {
	t.Run("creates company on trial", func(t *testing.T) {
		company, err := NewCompany("Sky Travel", "Owner@Sky.example", 14)

		require.NoError(t, err)
		assert.Equal(t, "Sky Travel", company.Name)
		assert.Equal(t, "owner@sky.example", company.Email)
		assert.Equal(t, SubscriptionTrial, company.Subscription.Status)
		assert.WithinDuration(t, company.Subscription.TrialStartDate.AddDate(0, 0, 14), company.Subscription.TrialEndDate, time.Second)
		assert.Len(t, company.GetDomainEvents(), 1)
	})

	t.Run("defaults trial length", func(t *testing.T) {
		company, err := NewCompany("Sky Travel", "owner@sky.example", 0)
		require.NoError(t, err)
		assert.WithinDuration(t, company.Subscription.TrialStartDate.AddDate(0, 0, DefaultTrialDays), company.Subscription.TrialEndDate, time.Second)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCompany("  ", "owner@sky.example", 14)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		_, err := NewCompany("Sky Travel", "not-an-email", 14)
		assert.Error(t, err)
	})
}

func TestCompany_RefreshSubscription(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("expires lapsed trial", func(t *testing.T) {
		company, err := NewCompany("Sky Travel", "owner@sky.example", 14)
		require.NoError(t, err)
		company.Subscription.TrialEndDate = now.Add(-time.Hour)
		company.ClearDomainEvents()

		state, changed := company.RefreshSubscription(now)

		assert.True(t, changed)
		assert.True(t, state.IsTrialExpired)
		assert.Equal(t, SubscriptionExpired, state.Status)
		assert.Equal(t, SubscriptionExpired, company.Subscription.Status)
		assert.Equal(t, 0, state.DaysRemaining)
		assert.Len(t, company.GetDomainEvents(), 1)
	})

	t.Run("keeps running trial and counts days", func(t *testing.T) {
		company, err := NewCompany("Sky Travel", "owner@sky.example", 14)
		require.NoError(t, err)
		company.Subscription.TrialEndDate = now.Add(36 * time.Hour)

		state, changed := company.RefreshSubscription(now)

		assert.False(t, changed)
		assert.Equal(t, SubscriptionTrial, state.Status)
		assert.Equal(t, 2, state.DaysRemaining)
	})

	t.Run("expires lapsed paid period", func(t *testing.T) {
		company, err := NewCompany("Sky Travel", "owner@sky.example", 14)
		require.NoError(t, err)
		start := now.AddDate(0, -1, -1)
		end := now.AddDate(0, 0, -1)
		require.NoError(t, company.UpdateSubscription(SubscriptionActive, &start, &end))

		state, changed := company.RefreshSubscription(now)

		assert.True(t, changed)
		assert.True(t, state.IsSubscriptionExpired)
		assert.Equal(t, SubscriptionExpired, company.Subscription.Status)
	})

	t.Run("canceled subscription never transitions", func(t *testing.T) {
		company, err := NewCompany("Sky Travel", "owner@sky.example", 14)
		require.NoError(t, err)
		require.NoError(t, company.UpdateSubscription(SubscriptionCanceled, nil, nil))
		company.Subscription.TrialEndDate = now.Add(-time.Hour)

		_, changed := company.RefreshSubscription(now)
		assert.False(t, changed)
		assert.Equal(t, SubscriptionCanceled, company.Subscription.Status)
	})
}

func TestCompany_UpdateSubscription(t *testing.T) {
	company, err := NewCompany("Sky Travel", "owner@sky.example", 14)
	require.NoError(t, err)

	t.Run("rejects unknown status", func(t *testing.T) {
		err := company.UpdateSubscription(SubscriptionStatus("gold"), nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects inverted period", func(t *testing.T) {
		start := time.Now()
		end := start.Add(-time.Hour)
		err := company.UpdateSubscription(SubscriptionActive, &start, &end)
		assert.Error(t, err)
	})

	t.Run("activates with period", func(t *testing.T) {
		start := time.Now()
		end := start.AddDate(0, 1, 0)
		require.NoError(t, company.UpdateSubscription(SubscriptionActive, &start, &end))
		assert.Equal(t, SubscriptionActive, company.Subscription.Status)
		assert.True(t, company.IsSubscriptionUsable(start.Add(time.Hour)))
		assert.False(t, company.IsSubscriptionUsable(end.Add(time.Hour)))
	})
}
