package reminder

import (
	"fmt"
	"time"

	"github.com/mycalender/calendar-backend/internal/model"
)

// FireTime computes the UTC instant a reminder must fire: the event's date
// and start time interpreted in loc, minus the lead time truncated to whole
// minutes. No check is made for instants already in the past; the alarm
// service fires those at its next sweep.
func FireTime(e *model.EventCreate, lead time.Duration, loc *time.Location) time.Time {
	return e.Start(loc).Add(-lead.Truncate(time.Minute)).UTC()
}

// AlarmKey derives the alarm registration key for one reminder of one
// event. Including the reminder index keeps multiple reminders of the same
// event from colliding, while re-saving an event still replaces its alarms.
func AlarmKey(eventID int64, reminderIndex int) string {
	return fmt.Sprintf("%d:%d", eventID, reminderIndex)
}
