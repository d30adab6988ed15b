package service

import (
	"fmt"
	"time"

	"flux_irrigation/internal/models"

	ics "github.com/arran4/golang-ical"
)

const icsProdID = "-//Flux Irrigation//Service Visit//EN"

// renderServiceICS builds a single all-day VEVENT for the issue's service date.
func renderServiceICS(issue models.Issue, info CalendarInfo, now time.Time) ([]byte, error) {
	day, err := time.Parse(time.DateOnly, *issue.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("parse service date %q: %w", *issue.ServiceDate, err)
	}

	title := "Irrigation Service"
	if info.Label != "" {
		title += " - " + info.Label
	}
	description := "Irrigation service visit scheduled by your management company."
	if issue.ManagementNote != nil {
		description += "\nNote from management: " + *issue.ManagementNote
	}

	cal := ics.NewCalendar()
	cal.SetProductId(icsProdID)
	cal.SetCalscale("GREGORIAN")

	event := cal.AddEvent("flux-svc-" + issue.ID + "@flux-irrigation")
	event.SetDtStampTime(now.UTC())
	event.SetAllDayStartAt(day)
	event.SetAllDayEndAt(day.AddDate(0, 0, 1))
	event.SetSummary(title)
	event.SetDescription(description)
	if info.Location != "" {
		event.SetLocation(info.Location)
	}
	event.SetStatus(ics.ObjectStatusConfirmed)

	return []byte(cal.Serialize()), nil
}
