package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"
	"github.com/wayakart27/ecommerce-sub002/internal/models"
	"github.com/wayakart27/ecommerce-sub002/internal/service"
)

func TestReferralSettingsUpdate(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	require.NoError(t, env.settings.Seed(ctx))

	assert.True(t, decimal.RequireFromString("0.05").Equal(env.settings.CommissionRate(ctx)))
	assert.Equal(t, domain.DefaultMinPayout, env.settings.MinPayout(ctx))

	require.NoError(t, env.settings.Update(ctx, domain.SettingReferralCommissionRate, " 0.075 "))
	require.NoError(t, env.settings.Update(ctx, domain.SettingDefaultMinPayout, "250000"))
	assert.True(t, decimal.RequireFromString("0.075").Equal(env.settings.CommissionRate(ctx)))
	assert.Equal(t, domain.Kobo(250000), env.settings.MinPayout(ctx))

	for _, tt := range []struct{ key, value string }{
		{domain.SettingReferralCommissionRate, "1.5"},
		{domain.SettingReferralCommissionRate, "-0.1"},
		{domain.SettingReferralCommissionRate, "abc"},
		{domain.SettingDefaultMinPayout, "0"},
		{domain.SettingDefaultMinPayout, "12.5"},
		{"site_name", "shop"},
	} {
		err := env.settings.Update(ctx, tt.key, tt.value)
		assert.True(t, service.ErrInvalidSetting.Has(err), "%s=%s", tt.key, tt.value)
	}

	all, err := env.settings.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.SettingReferralCommissionRate, all[0].Key)
	assert.Equal(t, "0.075", all[0].Value)
}

func TestReferralSettingsIgnoresCorruptValues(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.Create(&[]models.SystemSetting{
		{Key: domain.SettingReferralCommissionRate, Value: "2"},
		{Key: domain.SettingDefaultMinPayout, Value: "lots"},
	}).Error)

	assert.True(t, decimal.RequireFromString("0.05").Equal(env.settings.CommissionRate(ctx)))
	assert.Equal(t, domain.DefaultMinPayout, env.settings.MinPayout(ctx))
}
