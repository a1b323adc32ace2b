package pilot

import "sort"

// Alarm names reported by the autopilot dashboard.
const (
	NoGPSFix                = "NoGPSFix"
	InvalidGPSData          = "InvalidGPSData"
	SpeedTooLow             = "SpeedTooLow"
	HeadingErrorOutOfBounds = "HeadingErrorOutOfBounds"
	CorrectionAtLimit       = "CorrectionAtLimit"
)

var alarmLabels = map[string]string{
	NoGPSFix:                "No GPS fix",
	InvalidGPSData:          "Invalid GPS data",
	SpeedTooLow:             "Speed too low",
	HeadingErrorOutOfBounds: "Error too large",
	CorrectionAtLimit:       "Correction at limits",
}

// AlarmLabel returns a human label for an alarm name.
func AlarmLabel(name string) string {
	if label, ok := alarmLabels[name]; ok {
		return label
	}
	return "unknown: " + name
}

// Alarm is one dashboard entry in display order.
type Alarm struct {
	Name  string
	Label string
	On    bool
}

// Alarms lists d sorted by name.
func (d Dashboard) Alarms() []Alarm {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Alarm, len(names))
	for i, name := range names {
		out[i] = Alarm{Name: name, Label: AlarmLabel(name), On: d[name]}
	}
	return out
}
