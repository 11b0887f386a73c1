package metadata

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/carbocation/pfx"

	"github.com/microlims/acqexport/acquisition"
)

// The settings XML mirrors the TATSettings layout consumed by downstream
// tracking tools, so element and attribute names are fixed.

type tatSettings struct {
	XMLName           xml.Name       `xml:"TATSettings"`
	ConvertVersion    string         `xml:"TTTConvertExperimentVersion"`
	PositionCount     countAttr      `xml:"PositionCount"`
	PositionData      positionData   `xml:"PositionData"`
	WavelengthCount   countAttr      `xml:"WavelengthCount"`
	WavelengthData    wavelengthData `xml:"WavelengthData"`
	ObjectiveMag      valueAttr      `xml:"CurrentObjectiveMagnification"`
	TVAdapterMag      valueAttr      `xml:"CurrentTVAdapterMagnification"`
	CellsAndConditons cellsBlock     `xml:"CellsAndConditions"`
}

type countAttr struct {
	Count string `xml:"count,attr"`
}

type valueAttr struct {
	Value string `xml:"value,attr"`
}

type positionData struct {
	Positions []positionInformation `xml:"PositionInformation"`
}

type positionInformation struct {
	Dimension posInfoDimension `xml:"PosInfoDimension"`
}

type posInfoDimension struct {
	Index    string `xml:"index,attr"`
	PosX     string `xml:"posX,attr"`
	PosY     string `xml:"posY,attr"`
	Comments string `xml:"comments,attr"`
}

type wavelengthData struct {
	Wavelengths []wavelengthInformation `xml:"WavelengthInformation"`
}

type wavelengthInformation struct {
	Info wlInfo `xml:"WLInfo"`
}

type wlInfo struct {
	ImageType string `xml:"ImageType,attr"`
	Name      string `xml:"Name,attr"`
	Height    string `xml:"height,attr"`
	Width     string `xml:"width,attr"`
}

type cellsBlock struct {
	NumberOfCellTypes valueAttr `xml:"NumberOfCellTypes"`
	CellTypes         struct {
		CellType cellType `xml:"CNC_CTs_CellType"`
	} `xml:"CellsAndConditions_CellTypes"`
}

type cellType struct {
	PrimaryCell  valueAttr `xml:"PrimaryCell"`
	Name         valueAttr `xml:"Name"`
	Species      valueAttr `xml:"Species"`
	Sex          valueAttr `xml:"Sex"`
	Organ        valueAttr `xml:"Organ"`
	Age          valueAttr `xml:"Age"`
	Purification valueAttr `xml:"Purification"`
	Comment      valueAttr `xml:"Comment"`
}

var digits = regexp.MustCompile(`(\d+)`)

// WriteSettingsXML renders the acquisition's positions, wavelengths, and
// objective into the settings XML and writes it to outDir as
// <date><initials><setup>_TATexp.xml, returning the full path.
func WriteSettingsXML(flat map[string]string, dims acquisition.Dimensions, outDir, date, initials, setup string) (string, error) {
	width := Get(flat, keyWidth, "512")
	height := Get(flat, keyHeight, "512")

	objective := Get(flat, keyObjective, "4")
	if m := digits.FindString(objective); m != "" {
		objective = m
	} else {
		objective = "4"
	}

	doc := tatSettings{
		ConvertVersion:  "160304",
		PositionCount:   countAttr{Count: fmt.Sprint(dims.Positions)},
		WavelengthCount: countAttr{Count: fmt.Sprint(dims.Channels)},
		ObjectiveMag:    valueAttr{Value: objective},
		TVAdapterMag:    valueAttr{Value: "1.0"},
	}
	doc.CellsAndConditons.NumberOfCellTypes = valueAttr{Value: "1"}

	for i := 0; i < dims.Positions; i++ {
		keyX := fmt.Sprintf("ImageMetadataLV|SLxExperiment|ppNextLevelEx|i0000000000|uLoopPars|Points|i%010d|dPosX", i)
		keyY := fmt.Sprintf("ImageMetadataLV|SLxExperiment|ppNextLevelEx|i0000000000|uLoopPars|Points|i%010d|dPosY", i)

		doc.PositionData.Positions = append(doc.PositionData.Positions, positionInformation{
			Dimension: posInfoDimension{
				Index: fmt.Sprintf("%04d", i+1),
				PosX:  Get(flat, keyX, "0"),
				PosY:  Get(flat, keyY, "0"),
			},
		})
	}

	for ch := 0; ch < dims.Channels; ch++ {
		doc.WavelengthData.Wavelengths = append(doc.WavelengthData.Wavelengths, wavelengthInformation{
			Info: wlInfo{
				ImageType: "png",
				Name:      fmt.Sprintf("%02d", ch),
				Height:    height,
				Width:     width,
			},
		})
	}

	bts, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", pfx.Err(err)
	}

	path := filepath.Join(outDir, fmt.Sprintf("%s%s%s_TATexp.xml", date, initials, setup))
	content := append([]byte(xml.Header), bts...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", pfx.Err(err)
	}

	return path, nil
}
