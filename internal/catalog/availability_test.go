package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foodcourt/internal/domain"
)

func ist(h, m int) time.Time {
	return time.Date(2026, 10, 19, h, m, 0, 0, IST)
}

func TestIsOrderable_Examples(t *testing.T) {
	morning := domain.CatalogItem{Window: domain.WindowMorning, Stock: 5, IsActive: true}
	assert.True(t, IsOrderable(morning, ist(9, 30)))
	assert.False(t, IsOrderable(morning, ist(11, 0)))

	soldOut := domain.CatalogItem{Window: domain.WindowBoth, Stock: 0, IsActive: true}
	assert.False(t, IsOrderable(soldOut, ist(9, 0)))

	inactive := domain.CatalogItem{Window: domain.WindowBoth, Stock: 3, IsActive: false}
	assert.False(t, IsOrderable(inactive, ist(9, 0)))
}

func TestInWindow_Boundaries(t *testing.T) {
	tests := []struct {
		w    domain.Window
		h, m int
		want bool
	}{
		{domain.WindowMorning, 7, 59, false},
		{domain.WindowMorning, 8, 0, true},
		{domain.WindowMorning, 10, 25, true},
		{domain.WindowMorning, 10, 26, false},
		{domain.WindowAfternoon, 10, 59, false},
		{domain.WindowAfternoon, 11, 0, true},
		{domain.WindowAfternoon, 13, 59, true},
		{domain.WindowAfternoon, 14, 55, true},
		{domain.WindowAfternoon, 14, 56, false},
		{domain.WindowBoth, 10, 40, false},
		{domain.WindowBoth, 8, 30, true},
		{domain.WindowBoth, 12, 0, true},
		{domain.WindowBoth, 15, 0, false},
		{domain.Window("evening"), 9, 0, false},
	}
	for _, tt := range tests {
		got := InWindow(tt.w, ist(tt.h, tt.m))
		assert.Equalf(t, tt.want, got, "%s at %02d:%02d", tt.w, tt.h, tt.m)
	}
}

func TestInWindow_IgnoresHostZone(t *testing.T) {
	// 04:00 UTC is 09:30 IST.
	utc := time.Date(2026, 10, 19, 4, 0, 0, 0, time.UTC)
	ny := utc.In(time.FixedZone("EDT", -4*60*60))
	assert.True(t, InWindow(domain.WindowMorning, utc))
	assert.True(t, InWindow(domain.WindowMorning, ny))
	assert.False(t, InWindow(domain.WindowAfternoon, ny))
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, domain.TierPremium, TierFor("deals"))
	assert.Equal(t, domain.TierDeluxe, TierFor("Snacks"))
	assert.Equal(t, domain.TierRegular, TierFor("juices"))
	assert.Equal(t, domain.TierRegular, TierFor("Beverages"))
	assert.Equal(t, domain.TierRegular, TierFor("South Indian"))
}

func TestWindowLabel(t *testing.T) {
	assert.Equal(t, "Morning (8:00 AM - 10:25 AM)", WindowLabel(domain.WindowMorning))
	assert.Equal(t, "Afternoon (11:00 AM - 2:55 PM)", WindowLabel(domain.WindowAfternoon))
	assert.Equal(t, "Both (8:00 AM - 2:55 PM)", WindowLabel(domain.WindowBoth))
}
