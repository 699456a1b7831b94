// Package notify decides whether enough time has passed since a user's last
// reminder to send another one.
package notify

import (
	"strings"
	"time"
)

// Frequency is how often a user agrees to receive reminders.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// DefaultFrequency is assigned to new users.
const DefaultFrequency = Weekly

const day = 24 * time.Hour

var minInterval = map[Frequency]float64{
	Daily:   1,
	Weekly:  7,
	Monthly: 30,
}

// ParseFrequency normalizes s. Unknown values are returned as-is with ok=false.
func ParseFrequency(s string) (Frequency, bool) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	return f, f.Valid()
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	_, ok := minInterval[f]
	return ok
}

// MinDays is the minimum number of days between reminders, or 0 for an
// unknown frequency.
func (f Frequency) MinDays() float64 {
	return minInterval[f]
}

// ShouldNotify reports whether a reminder may be sent at now.
// A user who was never notified is always eligible, whatever the frequency.
// Otherwise unknown frequencies never notify.
func ShouldNotify(now time.Time, lastSent *time.Time, f Frequency) bool {
	if lastSent == nil {
		return true
	}
	threshold, ok := minInterval[f]
	if !ok {
		return false
	}

	elapsed := float64(now.Sub(*lastSent)) / float64(day)
	return elapsed >= threshold
}

// NextAllowed returns the earliest time a reminder may be sent. The zero time
// means "now" for a user who was never notified. It reports false when no
// reminder will ever be sent again (unknown frequency after a first reminder).
func NextAllowed(lastSent *time.Time, f Frequency) (time.Time, bool) {
	if lastSent == nil {
		return time.Time{}, true
	}
	if !f.Valid() {
		return time.Time{}, false
	}
	return lastSent.Add(time.Duration(f.MinDays() * float64(day))), true
}
