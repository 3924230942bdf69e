// Package countdown turns the distance to the festival start into the
// days/hours/minutes/seconds tuple shown in the hero banner and keeps it
// updated once per period.
package countdown

import (
	"fmt"
	"time"
)

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour

	LabelDays    = "Days"
	LabelHours   = "Hours"
	LabelMinutes = "Minutes"
	LabelSeconds = "Seconds"
)

// Sample is the floor decomposition of the remaining time in whole seconds.
// Hours < 24, Minutes < 60, Seconds < 60; Days is unbounded.
type Sample struct {
	Days    int64 `json:"days"`
	Hours   int   `json:"hours"`
	Minutes int   `json:"minutes"`
	Seconds int   `json:"seconds"`
	Reached bool  `json:"reached"`
}

// Field is one labelled display cell of the countdown.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Compute returns the sample for target as seen at now. Anything at or past
// the target yields the all-zero reached sample.
func Compute(target, now time.Time) Sample {
	remaining := target.Sub(now).Milliseconds()
	if remaining <= 0 {
		return Sample{Reached: true}
	}

	return Sample{
		Days:    remaining / msPerDay,
		Hours:   int(remaining % msPerDay / msPerHour),
		Minutes: int(remaining % msPerHour / msPerMinute),
		Seconds: int(remaining % msPerMinute / msPerSecond),
	}
}

// TotalSeconds folds the sample back into whole seconds.
func (s Sample) TotalSeconds() int64 {
	return s.Days*86400 + int64(s.Hours)*3600 + int64(s.Minutes)*60 + int64(s.Seconds)
}

// Fields returns the display cells, two digits each; days may grow wider.
func (s Sample) Fields() []Field {
	return []Field{
		{Label: LabelDays, Value: fmt.Sprintf("%02d", s.Days)},
		{Label: LabelHours, Value: fmt.Sprintf("%02d", s.Hours)},
		{Label: LabelMinutes, Value: fmt.Sprintf("%02d", s.Minutes)},
		{Label: LabelSeconds, Value: fmt.Sprintf("%02d", s.Seconds)},
	}
}

func (s Sample) String() string {
	return fmt.Sprintf("%02dd %02dh %02dm %02ds", s.Days, s.Hours, s.Minutes, s.Seconds)
}
