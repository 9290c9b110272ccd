package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBillingCycle_Expiry(t *testing.T) {
	start := time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		cycle BillingCycle
		want  time.Time
		ok    bool
	}{
		{CycleMonthly, time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC), true},
		{CycleQuarterly, time.Date(2025, time.April, 30, 12, 0, 0, 0, time.UTC), true},
		{CycleBiannually, time.Date(2025, time.July, 31, 12, 0, 0, 0, time.UTC), true},
		{CycleYearly, time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC), true},
		{BillingCycle("weekly"), time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.cycle), func(t *testing.T) {
			got, ok := tt.cycle.Expiry(start)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackage_Pricing(t *testing.T) {
	p := Package{PricingOptions: []PricingOption{
		{BillingCycle: CycleMonthly, Amount: 10},
		{BillingCycle: CycleYearly, Amount: 100},
	}}

	opt, ok := p.Pricing(CycleYearly)
	assert.True(t, ok)
	assert.Equal(t, 100.0, opt.Amount)

	_, ok = p.Pricing(CycleQuarterly)
	assert.False(t, ok)
}
