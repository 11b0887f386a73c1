package metadata

import "strings"

// LaserSetting is one parsed laser configuration block from the free-text
// laser info the microscope embeds in its metadata.
type LaserSetting struct {
	Laser         string
	Detector      string
	Scanner       string
	EmissionRange string
	Gain          string
	Power         string
	Zoom          string
	LineAveraging string
}

// ParseLaserInfo parses the line-oriented laser text block. Fields
// accumulate until a "Zoom:" line closes the current laser's record; fields
// missing at that point keep their placeholder.
func ParseLaserInfo(text string) []LaserSetting {
	var settings []LaserSetting

	current := newLaserSetting()
	haveLaser := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "Scanner"):
			current.Scanner = valueAfterColon(line)
		case strings.HasPrefix(line, "Detector"):
			current.Detector = valueAfterColon(line)
		case strings.HasPrefix(line, "Gain"):
			current.Gain = valueAfterColon(line)
		case strings.HasPrefix(line, "Line Averaging"):
			current.LineAveraging = valueAfterColon(line)
		case strings.HasPrefix(line, "Emission Range"):
			current.EmissionRange = valueAfterColon(line)
		case strings.HasPrefix(line, "Laser") && strings.Contains(line, "nm"):
			current.Laser = strings.TrimSpace(strings.SplitN(line, ":", 2)[0])
			haveLaser = true
		case haveLaser && strings.Contains(line, "Power:"):
			current.Power = valueAfterColon(line)
		case strings.HasPrefix(line, "Zoom:"):
			current.Zoom = valueAfterColon(line)
			if haveLaser {
				settings = append(settings, current)
				current = newLaserSetting()
				haveLaser = false
			}
		}
	}

	return settings
}

func newLaserSetting() LaserSetting {
	return LaserSetting{
		Detector:      "Unknown",
		Scanner:       "Unknown",
		Gain:          "Unknown",
		Power:         "Unknown",
		EmissionRange: "Unknown",
		Zoom:          "Unknown",
		LineAveraging: "N/A",
	}
}

func valueAfterColon(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
