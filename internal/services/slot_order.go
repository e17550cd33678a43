package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
)

const unparsableSlotKey = 1 << 20

// SlotSortKey maps a slot time to minutes since midnight, with hours before
// the late-night cutoff pushed past 24:00. Accepts "22:00", "9:30",
// "7:00 PM" and "12:15am". Unparsable values sort last.
func SlotSortKey(t string) int {
	h, m, ok := parseClock(t)
	if !ok {
		return unparsableSlotKey
	}
	if h < constants.LateNightCutoffHour {
		h += 24
	}
	return h*60 + m
}

func parseClock(raw string) (int, int, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	meridiem := ""
	if strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM") {
		meridiem = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hs, ms, found := strings.Cut(s, ":")
	if !found {
		ms = "0"
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}

	switch meridiem {
	case "AM":
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if h == 12 {
			h = 0
		}
	case "PM":
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if h != 12 {
			h += 12
		}
	default:
		if h < 0 || h > 23 {
			return 0, 0, false
		}
	}
	return h, m, true
}

// SortSlots orders slots by SlotSortKey, keeping input order for ties.
func SortSlots(slots []dtos.SlotAvailability) {
	sort.SliceStable(slots, func(i, j int) bool {
		return SlotSortKey(slots[i].Time) < SlotSortKey(slots[j].Time)
	})
}
