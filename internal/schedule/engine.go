package schedule

import "time"

// BuildDaySlots computes the ordered slot list for one clinic day. It is a
// pure function of its inputs; all I/O happens in Service.
//
// A fully closed day (disabled template, weekly or custom holiday, or the
// global kill switch) yields no slots at all. Candidates overlapping a break
// are dropped entirely, while disabled windows and existing bookings keep
// their slot visible but unbookable.
func BuildDaySlots(set Settings, date time.Time, disabled []DisabledSlot, bookedLabels map[string]struct{}, now time.Time) []Slot {
	if set.AppointmentsDisabled {
		return nil
	}
	if set.IsWeeklyHoliday(date.Weekday()) || set.IsCustomHoliday(date) {
		return nil
	}

	tmpl, ok := set.DayTemplates[date.Weekday()]
	if !ok || !tmpl.Enabled {
		return nil
	}
	if tmpl.Start >= tmpl.End || tmpl.SlotMinutes <= 0 {
		return nil
	}

	interval := ClockTime(tmpl.SlotMinutes)
	cutoff := now.Add(set.AdvanceNotice)

	var slots []Slot
	// Step until the next slot would spill past closing; a short trailing
	// slot is never offered.
	for t := tmpl.Start; t+interval <= tmpl.End; t += interval {
		cand := Interval{Start: t, End: t + interval}

		if overlapsBreak(cand, tmpl.Breaks) {
			continue
		}

		slot := Slot{
			Label:    SlotLabel(cand),
			Start:    cand.Start.At(date),
			End:      cand.End.At(date),
			Bookable: true,
			Reason:   ReasonAvailable,
		}

		switch {
		case overlapsDisabled(cand, disabled):
			slot.Bookable = false
			slot.Reason = ReasonBlocked
		case bookedLabels != nil && contains(bookedLabels, slot.Label):
			slot.Bookable = false
			slot.Reason = ReasonBooked
		case !slot.Start.After(now) || slot.Start.Before(cutoff):
			slot.Bookable = false
			slot.Reason = ReasonPast
		}

		slots = append(slots, slot)
	}

	return slots
}

// overlapsBreak tests the candidate against each break independently; the
// list may be unsorted and breaks may overlap each other.
func overlapsBreak(cand Interval, breaks []Interval) bool {
	for _, br := range breaks {
		if cand.Overlaps(br) {
			return true
		}
	}
	return false
}

func overlapsDisabled(cand Interval, disabled []DisabledSlot) bool {
	for _, d := range disabled {
		if cand.Overlaps(d.Window()) {
			return true
		}
	}
	return false
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
