package services

import (
	"testing"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/stretchr/testify/require"
)

func times(slots []dtos.SlotAvailability) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func TestSortSlots_LateNightAfterEvening(t *testing.T) {
	slots := []dtos.SlotAvailability{{Time: "22:00"}, {Time: "01:00"}, {Time: "09:00"}}
	SortSlots(slots)
	require.Equal(t, []string{"09:00", "22:00", "01:00"}, times(slots))
}

func TestSortSlots_MixedFormats(t *testing.T) {
	slots := []dtos.SlotAvailability{
		{Time: "12:15am"}, {Time: "7:00 PM"}, {Time: "10:30"}, {Time: "whenever"}, {Time: "5:59"}, {Time: "6:00"},
	}
	SortSlots(slots)
	require.Equal(t, []string{"6:00", "10:30", "7:00 PM", "12:15am", "5:59", "whenever"}, times(slots))
}

func TestSlotSortKey(t *testing.T) {
	require.Equal(t, 22*60, SlotSortKey("22:00"))
	require.Equal(t, 25*60, SlotSortKey("01:00"))
	require.Equal(t, 19*60, SlotSortKey("7 pm"))
	require.Equal(t, 24*60+15, SlotSortKey("12:15 AM"))
	require.Equal(t, 12*60, SlotSortKey("12:00 PM"))
	require.Equal(t, unparsableSlotKey, SlotSortKey("25:00"))
	require.Equal(t, unparsableSlotKey, SlotSortKey(""))
}
