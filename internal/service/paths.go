package service

import (
	"net/http"
	"strings"

	"flux_irrigation/internal/models"
)

// remoteChange maps a homeowner API path prefix to the feed category a
// successful management write to it is reported under.
type remoteChange struct {
	prefix   string
	category models.HomeownerCategory
	title    string
}

// Longer prefixes first.
var remoteChanges = []remoteChange{
	{"/api/system/pause", models.CategorySystemChanges, "System Paused"},
	{"/api/system/resume", models.CategorySystemChanges, "System Resumed"},
	{"/api/weather", models.CategoryWeatherChanges, "Weather Settings Changed"},
	{"/api/moisture", models.CategoryMoistureChanges, "Moisture Settings Changed"},
	{"/api/pump", models.CategoryEquipmentChanges, "Pump Settings Changed"},
	{"/api/water", models.CategoryEquipmentChanges, "Water Settings Changed"},
	{"/api/durations", models.CategoryDurationChanges, "Run Durations Changed"},
	{"/api/schedule", models.CategoryDurationChanges, "Schedule Changed"},
	{"/api/report", models.CategoryReportChanges, "Report Settings Changed"},
}

// CategoryForPath reports which homeowner feed category a change to path
// belongs to. Paths outside the table are not reported.
func CategoryForPath(path string) (models.HomeownerCategory, string, bool) {
	path = "/" + strings.TrimLeft(path, "/")
	for _, rc := range remoteChanges {
		if path == rc.prefix || strings.HasPrefix(path, rc.prefix+"/") {
			return rc.category, rc.title, true
		}
	}
	return "", "", false
}

func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
