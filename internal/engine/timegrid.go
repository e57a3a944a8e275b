package engine

import "sort"

// TimeGrid is the canonical, sorted view of the days, online days, and
// slots a Request schedules against. It is built once per run and
// consulted read-only by every downstream stage.
type TimeGrid struct {
	Days             []Weekday
	OnlineDays       []Weekday
	Slots            []TimeSlot
	LunchStartMinute int
	LunchEndMinute   int
}

// BuildTimeGrid normalises the request's Days/TimeSlots: slots are
// sorted by their Slot index and days default to the standard
// Monday-Saturday week when the request leaves them empty.
func BuildTimeGrid(req Request) TimeGrid {
	constraints := req.Constraints.withDefaults()

	days := req.Days
	if len(days) == 0 {
		days = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
	}
	slots := make([]TimeSlot, len(req.TimeSlots))
	copy(slots, req.TimeSlots)
	sort.Slice(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })

	return TimeGrid{
		Days:             days,
		OnlineDays:       req.OnlineDays,
		Slots:            slots,
		LunchStartMinute: constraints.LunchStartMinute,
		LunchEndMinute:   constraints.LunchEndMinute,
	}
}

// BuildSlotsWithLunch implements the C1 time-grid algorithm directly:
// advance a cursor from dayStartMinute in slotMinutes increments; if
// advancing would overlap [lunchStart, lunchEnd), jump the cursor to
// lunchEnd and retry. Stops once cursor+slotMinutes would exceed
// dayEndMinute. Useful for callers that want generated slots instead
// of supplying their own catalog.
func BuildSlotsWithLunch(dayStartMinute, dayEndMinute, slotMinutes, lunchStart, lunchEnd int) []TimeSlot {
	if slotMinutes <= 0 {
		return nil
	}
	var slots []TimeSlot
	cursor := dayStartMinute
	idx := 0
	for cursor+slotMinutes <= dayEndMinute {
		if lunchEnd > lunchStart && cursor < lunchEnd && cursor+slotMinutes > lunchStart {
			cursor = lunchEnd
			continue
		}
		slots = append(slots, TimeSlot{
			Slot:        idx,
			StartMinute: cursor,
			EndMinute:   cursor + slotMinutes,
		})
		cursor += slotMinutes
		idx++
	}
	return slots
}

// SlotByIndex returns the TimeSlot whose Slot field equals idx.
func (g TimeGrid) SlotByIndex(idx int) (TimeSlot, bool) {
	for _, s := range g.Slots {
		if s.Slot == idx {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// Consecutive reports whether slot indices a and b are adjacent on the
// grid (b immediately follows a in sorted order).
func (g TimeGrid) Consecutive(a, b int) bool {
	for i := 0; i < len(g.Slots)-1; i++ {
		if g.Slots[i].Slot == a && g.Slots[i+1].Slot == b {
			return true
		}
	}
	return false
}

// IsOnlineDay reports whether day is one of the grid's online days.
func (g TimeGrid) IsOnlineDay(day Weekday) bool {
	for _, d := range g.OnlineDays {
		if d == day {
			return true
		}
	}
	return false
}

// OverlapsLunch reports whether any of keys' slots intersects the
// configured lunch window.
func (g TimeGrid) OverlapsLunch(keys []Key) bool {
	if g.LunchEndMinute <= g.LunchStartMinute {
		return false
	}
	for _, k := range keys {
		slot, ok := g.SlotByIndex(k.Slot)
		if !ok {
			continue
		}
		if slot.Overlaps(g.LunchStartMinute, g.LunchEndMinute) {
			return true
		}
	}
	return false
}

func (g TimeGrid) slotDurationOrZero(idx int) int {
	slot, ok := g.SlotByIndex(idx)
	if !ok {
		return 0
	}
	return slot.DurationMinutes()
}
