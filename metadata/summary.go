package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/microlims/acqexport/windowing"
)

// Metadata keys the summary pulls out of the flattened mapping. These match
// the key paths the microscope writes.
const (
	keyWidth     = "ImageAttributesLV|SLxImageAttributes|uiWidth"
	keyHeight    = "ImageAttributesLV|SLxImageAttributes|uiHeight"
	keyObjective = "ImageCalibrationLV|0|SLxCalibration|Objective"
	keyMacro     = "ImageMetadataLV|SLxExperiment|ppNextLevelEx|i0000000000|wsCommandBeforeCapture"
	keyPositions = "ImageMetadataLV|SLxExperiment|ppNextLevelEx|i0000000000|uLoopPars|uiCount"
	keyLaserInfo = "ImageTextInfoLV|SLxImageTextInfo|TextInfoItem_6"
)

// Description builds the HTML experimental description: a general metadata
// table followed by a laser settings table. shape is the full array shape
// reported by the acquisition.
func Description(flat map[string]string, shape []int) string {
	info := [][]string{
		{"File Dimensions", fmt.Sprint(shape)},
		{"Resolution", fmt.Sprintf("%sx%s", Get(flat, keyWidth, "Unknown"), Get(flat, keyHeight, "Unknown"))},
		{"Objective", Get(flat, keyObjective, "Unknown")},
	}

	macro := Get(flat, keyMacro, "N/A")
	macroActive := "No"
	if macro != "N/A" {
		macroActive = "Yes"
	}
	info = append(info,
		[]string{"Macro Active", macroActive},
		[]string{"Macro Command", macro},
		[]string{"Number of Positions", Get(flat, keyPositions, "Unknown")},
	)

	var laserRows [][]string
	for _, s := range ParseLaserInfo(Get(flat, keyLaserInfo, "")) {
		laserRows = append(laserRows, []string{
			s.Laser, s.Detector, s.Scanner, s.EmissionRange, s.Gain, s.Power, s.Zoom, s.LineAveraging,
		})
	}

	general := htmlTable(info, []string{"Key", "Value"})
	lasers := htmlTable(laserRows, []string{
		"Laser Wavelength", "Detector", "Scanner", "Emission Range", "Gain", "Laser Power", "Zoom", "Line Averaging",
	})

	return general + "<br><br>" + lasers + "<br><br>"
}

// ResultsHTML builds the results summary handed to the LIMS upload step: a
// per-channel black/white point table plus the output folder. Channels are
// listed in sorted key order for determinism.
func ResultsHTML(store windowing.Store, folder string) string {
	var sb strings.Builder
	sb.WriteString("<h3>Experimental Results</h3>")
	sb.WriteString("<table border='1'><tr><th>Channel</th><th>Black Point</th><th>White Point</th></tr>")

	keys := make([]string, 0, len(store))
	for k := range store {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p := store[k]
		sb.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%d</td></tr>", k, p.Min, p.Max))
	}
	sb.WriteString("</table>")
	sb.WriteString(fmt.Sprintf("<p><strong>Main Folder:</strong> %s</p>", folder))

	return sb.String()
}

func htmlTable(rows [][]string, headers []string) string {
	var sb strings.Builder
	sb.WriteString("<table border='1'>")

	sb.WriteString("<tr>")
	for _, h := range headers {
		sb.WriteString("<th>" + h + "</th>")
	}
	sb.WriteString("</tr>")

	for _, row := range rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>" + cell + "</td>")
		}
		sb.WriteString("</tr>")
	}

	sb.WriteString("</table>")
	return sb.String()
}
