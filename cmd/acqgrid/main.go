// acqgrid extracts representative snapshot frames from an acquisition and
// assembles them into one composite preview grid per channel.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/microlims/acqexport/acquisition"
	"github.com/microlims/acqexport/composite"
	"github.com/microlims/acqexport/snapshot"
)

func main() {
	start := time.Now()
	log.Println("acqgrid start")
	defer func() {
		log.Printf("acqgrid end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var acqPath, outputDir, date, initials, channelNames, fontPath string
	var maxPerRow, thumbWidth int
	var fontSize float64
	var skipExtract, label bool

	flag.StringVar(&acqPath, "acq", "", "Path to the acquisition frame store")
	flag.StringVar(&outputDir, "out", "", "Folder holding (or receiving) the per-position snapshot directories and the composites")
	flag.StringVar(&date, "date", time.Now().Format("060102"), "Date code used in position folder names, YYMMDD")
	flag.StringVar(&initials, "initials", "", "Experimenter initials used in position folder names")
	flag.StringVar(&channelNames, "channels", "", "(Optional) Comma-delimited channel names. Defaults to Channel 1..C.")
	flag.IntVar(&maxPerRow, "maxperrow", composite.DefaultMaxPerRow, "Maximum positions per composite row before wrapping")
	flag.IntVar(&thumbWidth, "thumbwidth", 0, "(Optional) If > 0, also write a thumbnail of each composite capped at this width")
	flag.BoolVar(&skipExtract, "skip-extract", false, "Assume the snapshot directories already exist and only build composites")
	flag.BoolVar(&label, "label", false, "Overlay position labels on each composite (rescales it for display)")
	flag.StringVar(&fontPath, "font", "", "(Optional) TTF font for labels; the built-in bitmap face is used when empty")
	flag.Float64Var(&fontSize, "fontsize", 24, "Label font size when -font is given")
	flag.Parse()

	if acqPath == "" || outputDir == "" || initials == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	r, err := acquisition.OpenRaw(acqPath)
	if err != nil {
		log.Fatalln(err)
	}
	dims := r.Sizes()

	if !skipExtract {
		if err := snapshot.Extract(r, outputDir, date, initials); err != nil {
			r.Close()
			log.Fatalln(err)
		}
	}
	if err := r.Close(); err != nil {
		log.Fatalln(err)
	}

	names := channelNameList(channelNames, dims.Channels)

	builder := &composite.Builder{
		OutputDir:    outputDir,
		ChannelNames: names,
		MiddleZ:      dims.MiddleZ(),
		MaxPerRow:    maxPerRow,
	}

	written, failures, err := builder.Build()
	if err != nil {
		log.Fatalln(err)
	}
	for _, f := range failures {
		log.Printf("channel %s skipped: %v\n", f.Channel, f.Err)
	}

	if label {
		rowLabels, colLabels := gridLabels(dims.Positions, maxPerRow)
		for _, comp := range written {
			if err := composite.LabelFile(comp.Path, rowLabels, colLabels, fontPath, fontSize); err != nil {
				log.Printf("labeling %s failed: %v\n", comp.Path, err)
			}
		}
	}

	if thumbWidth > 0 {
		for _, comp := range written {
			thumb, err := composite.Thumbnail(comp.Path, thumbWidth)
			if err != nil {
				log.Printf("thumbnail for %s failed: %v\n", comp.Path, err)
				continue
			}
			log.Printf("wrote %s\n", thumb)
		}
	}
}

// gridLabels names the columns p1..pN and each row by the position that
// starts it, matching the row-major wrap of the composite grid.
func gridLabels(positions, maxPerRow int) (rowLabels, colLabels []string) {
	cols := positions
	if cols > maxPerRow {
		cols = maxPerRow
	}
	if cols < 1 {
		cols = 1
	}
	rows := (positions + cols - 1) / cols

	for i := 0; i < cols; i++ {
		colLabels = append(colLabels, fmt.Sprintf("p%d", i+1))
	}
	for i := 0; i < rows; i++ {
		rowLabels = append(rowLabels, fmt.Sprintf("p%d", i*cols+1))
	}
	return rowLabels, colLabels
}

func channelNameList(commaDelimited string, channels int) []string {
	if commaDelimited != "" {
		var names []string
		for _, name := range strings.Split(commaDelimited, ",") {
			names = append(names, strings.TrimSpace(name))
		}
		return names
	}

	names := make([]string, 0, channels)
	for i := 0; i < channels; i++ {
		names = append(names, fmt.Sprintf("Channel %d", i+1))
	}
	return names
}
