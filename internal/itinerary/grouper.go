package itinerary

// TimeOfDayBucket names a slot in the grouped feed presentation.
type TimeOfDayBucket string

const (
	BucketMorning   TimeOfDayBucket = "morning"
	BucketAfternoon TimeOfDayBucket = "afternoon"
	BucketEvening   TimeOfDayBucket = "evening"
)

// Blocks without a scheduled time sort as mid-morning.
const defaultBucketHour = 9

// GroupedDay is the derived time-of-day view of a single day. It is a
// read-only projection: building it never mutates the day's order, and flight
// blocks are left out of every bucket while keeping their slot in the
// underlying sequence.
type GroupedDay struct {
	Morning   []*Block
	Afternoon []*Block
	Evening   []*Block
}

// GroupByTimeOfDay partitions the day's blocks into Morning (hour < 12),
// Afternoon (12–16) and Evening (hour >= 17). The partition is stable: within
// each bucket blocks keep the day's order.
func GroupByTimeOfDay(day *Day) GroupedDay {
	grouped := GroupedDay{
		Morning:   []*Block{},
		Afternoon: []*Block{},
		Evening:   []*Block{},
	}
	if day == nil {
		return grouped
	}
	for _, block := range day.Blocks {
		if block.Kind == BlockKindFlight {
			continue
		}
		switch BucketForTime(block.Time) {
		case BucketMorning:
			grouped.Morning = append(grouped.Morning, block)
		case BucketAfternoon:
			grouped.Afternoon = append(grouped.Afternoon, block)
		case BucketEvening:
			grouped.Evening = append(grouped.Evening, block)
		}
	}
	return grouped
}

// BucketForTime maps a scheduled time to its bucket; an unset time defaults
// to hour 9.
func BucketForTime(clockTime ClockTime) TimeOfDayBucket {
	hour := defaultBucketHour
	if clockTime.IsSet() {
		hour = clockTime.Hour()
	}
	switch {
	case hour < 12:
		return BucketMorning
	case hour < 17:
		return BucketAfternoon
	default:
		return BucketEvening
	}
}
