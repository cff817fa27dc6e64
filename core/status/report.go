package status

import (
	"time"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/user"
)

// ReportQuery selects the civil day a report covers. An empty Date means
// "today" in the requested timezone; an empty Timezone falls back to the
// configured default.
type ReportQuery struct {
	Date     string `query:"date" json:"date" validate:"caldate"`
	Timezone string `query:"tz" json:"tz" validate:"tzname"`
}

// Counts holds one counter per status value.
type Counts struct {
	Available    int `json:"AVAILABLE"`
	Intervention int `json:"INTERVENTION"`
	Unavailable  int `json:"UNAVAILABLE"`
	Absent       int `json:"ABSENT"`
}

func (c *Counts) incr(s Status) {
	switch s {
	case Available:
		c.Available++
	case Intervention:
		c.Intervention++
	case Unavailable:
		c.Unavailable++
	case Absent:
		c.Absent++
	}
}

// ReportItem is a status event enriched with its owner's display attributes.
type ReportItem struct {
	Event
	User ReportUser `json:"user"`
}

type ReportUser struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Grade     string `json:"grade,omitempty"`
}

// Report aggregates one civil day of status changes.
type Report struct {
	Items   []ReportItem `json:"items"`
	Buckets [24]Counts   `json:"buckets"`
	Counts  Counts       `json:"counts"`
}

// dayWindow resolves the report query to a concrete [start, end) absolute-time
// window and the location used for hour bucketing.
func dayWindow(q ReportQuery, now time.Time) (start, end time.Time, loc *time.Location, err error) {
	tz := q.Timezone
	if tz == "" {
		tz = core.Conf.Timezone
	}
	loc, err = time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, time.Time{}, nil, core.NewValidationError(err, core.FieldError{Field: "tz", Error: timezoneText})
	}

	var day time.Time
	if q.Date == "" {
		day = now.In(loc)
	} else {
		day, err = time.ParseInLocation("2006-01-02", q.Date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: dateText})
		}
	}

	// Midnight-to-midnight in loc; DST-transition days are not 24h long,
	// so the end is the next civil midnight, not start+24h.
	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
	return start, end, loc, nil
}

// hourlyBuckets folds events into 24 per-status histogram slots. Each user
// contributes at most one increment per local hour: the last event they
// submitted within that hour. Hours without an event for a user contribute
// nothing for that user; there is no carry-over into adjacent hours.
func hourlyBuckets(events []Event, loc *time.Location) [24]Counts {
	type slot struct {
		user int
		hour int
	}
	last := make(map[slot]Event)
	for _, ev := range events {
		k := slot{user: ev.UserID, hour: ev.CreatedAt.In(loc).Hour()}
		if cur, ok := last[k]; !ok || ev.After(cur) {
			last[k] = ev
		}
	}

	var buckets [24]Counts
	for k, ev := range last {
		buckets[k.hour].incr(ev.Status)
	}
	return buckets
}

// latestPerUser reduces events to each user's most recent one.
func latestPerUser(events []Event) map[int]Event {
	latest := make(map[int]Event)
	for _, ev := range events {
		if cur, ok := latest[ev.UserID]; !ok || ev.After(cur) {
			latest[ev.UserID] = ev
		}
	}
	return latest
}

// dailyCounts tallies the latest status of every user who reported at least
// once. Users with no event are excluded, not defaulted to ABSENT; the team
// view is the place that defaults missing data.
func dailyCounts(events []Event) Counts {
	var counts Counts
	for _, ev := range latestPerUser(events) {
		counts.incr(ev.Status)
	}
	return counts
}

func enrichItems(events []Event, users map[int]user.User) []ReportItem {
	items := make([]ReportItem, 0, len(events))
	for _, ev := range events {
		item := ReportItem{Event: ev}
		if usr, ok := users[ev.UserID]; ok {
			item.User = ReportUser{FirstName: usr.FirstName, LastName: usr.LastName, Grade: usr.Grade}
		}
		items = append(items, item)
	}
	return items
}
