package catalog

import (
	"strings"
	"time"

	"foodcourt/internal/domain"
)

// IST is the food court's civil time; windows are evaluated in it whatever the host zone is.
var IST = time.FixedZone("IST", 5*60*60+30*60)

func inMorning(h, m int) bool {
	return h == 8 || h == 9 || (h == 10 && m <= 25)
}

func inAfternoon(h, m int) bool {
	return h == 11 || h == 12 || h == 13 || (h == 14 && m <= 55)
}

// InWindow reports whether now falls inside w. Unknown windows are never open.
func InWindow(w domain.Window, now time.Time) bool {
	local := now.In(IST)
	h, m := local.Hour(), local.Minute()
	switch w {
	case domain.WindowMorning:
		return inMorning(h, m)
	case domain.WindowAfternoon:
		return inAfternoon(h, m)
	case domain.WindowBoth:
		return inMorning(h, m) || inAfternoon(h, m)
	}
	return false
}

func IsOrderable(item domain.CatalogItem, now time.Time) bool {
	return InWindow(item.Window, now) && item.Stock > 0 && item.IsActive
}

func WindowLabel(w domain.Window) string {
	switch w {
	case domain.WindowMorning:
		return "Morning (8:00 AM - 10:25 AM)"
	case domain.WindowAfternoon:
		return "Afternoon (11:00 AM - 2:55 PM)"
	default:
		return "Both (8:00 AM - 2:55 PM)"
	}
}

var tiers = map[string]domain.Tier{
	"deals":     domain.TierPremium,
	"snacks":    domain.TierDeluxe,
	"juices":    domain.TierRegular,
	"beverages": domain.TierRegular,
}

func TierFor(category string) domain.Tier {
	if t, ok := tiers[strings.ToLower(strings.TrimSpace(category))]; ok {
		return t
	}
	return domain.TierRegular
}
