// acqpipeline runs the whole export headlessly: metadata, snapshot
// extraction, composites, automatic black/white calibration, parallel 8-bit
// conversion, and the results summary for the LIMS upload step. Interrupts
// are honored between stages; a running stage always finishes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/microlims/acqexport/acquisition"
	"github.com/microlims/acqexport/batch"
	"github.com/microlims/acqexport/composite"
	"github.com/microlims/acqexport/metadata"
	"github.com/microlims/acqexport/snapshot"
	"github.com/microlims/acqexport/windowing"
)

func main() {
	start := time.Now()
	log.Println("acqpipeline start")
	defer func() {
		log.Printf("acqpipeline end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var acqPath, outputDir, date, initials, setup, channelNames string
	var compressionPercent int
	var loQ, hiQ float64

	flag.StringVar(&acqPath, "acq", "", "Path to the acquisition frame store")
	flag.StringVar(&outputDir, "out", "", "Analysis output folder")
	flag.StringVar(&date, "date", time.Now().Format("060102"), "Date code used in output names, YYMMDD")
	flag.StringVar(&initials, "initials", "", "Experimenter initials used in output names")
	flag.StringVar(&setup, "setup", "", "Microscope setup number for the settings XML")
	flag.StringVar(&channelNames, "channels", "", "(Optional) Comma-delimited channel names")
	flag.IntVar(&compressionPercent, "compression", 100, "Compression percent: 100 = none, 0 = maximum")
	flag.Float64Var(&loQ, "black-quantile", 0.01, "Intensity quantile for the automatic black point")
	flag.Float64Var(&hiQ, "white-quantile", 0.999, "Intensity quantile for the automatic white point")
	flag.Parse()

	if acqPath == "" || outputDir == "" || initials == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		log.Fatalln(err)
	}

	// Stage 1: metadata.
	r, err := acquisition.OpenRaw(acqPath)
	if err != nil {
		log.Fatalln(err)
	}
	dims := r.Sizes()
	flat := metadata.Flatten(r.UnstructuredMetadata())
	shape := r.Shape()

	base := strings.TrimSuffix(filepath.Base(acqPath), filepath.Ext(acqPath))
	if err := metadata.WriteCSV(flat, filepath.Join(outputDir, base+"_metadata.csv")); err != nil {
		r.Close()
		log.Fatalln(err)
	}
	if _, err := metadata.WriteSettingsXML(flat, dims, outputDir, date, initials, setup); err != nil {
		r.Close()
		log.Fatalln(err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, base+"_description.html"),
		[]byte(metadata.Description(flat, shape)), 0644); err != nil {
		r.Close()
		log.Fatalln(err)
	}
	checkStopped(ctx)

	// Stage 2: snapshot extraction.
	if err := snapshot.Extract(r, outputDir, date, initials); err != nil {
		r.Close()
		log.Fatalln(err)
	}
	if err := r.Close(); err != nil {
		log.Fatalln(err)
	}
	checkStopped(ctx)

	// Stage 3: composites.
	builder := &composite.Builder{
		OutputDir:    outputDir,
		ChannelNames: channelNameList(channelNames, dims.Channels),
		MiddleZ:      dims.MiddleZ(),
	}
	composites, failures, err := builder.Build()
	if err != nil {
		log.Fatalln(err)
	}
	for _, f := range failures {
		log.Printf("channel %s skipped: %v\n", f.Channel, f.Err)
	}
	checkStopped(ctx)

	// Stage 4: automatic calibration over the composites. Channels whose
	// composite failed get no stored point and fall back to the full range.
	images := make(map[int]string)
	for _, comp := range composites {
		images[comp.Channel] = comp.Path
	}
	points, err := windowing.RunSession(images, windowing.AutoCalibrator{LowQuantile: loQ, HighQuantile: hiQ})
	if err != nil {
		log.Fatalln(err)
	}
	pointsPath := filepath.Join(outputDir, "black_white_points.json")
	if err := windowing.SaveStore(points, pointsPath); err != nil {
		log.Fatalln(err)
	}
	checkStopped(ctx)

	// Stage 5: parallel 8-bit conversion.
	converter := &batch.Converter{
		AcquisitionPath:    acqPath,
		OutputDir:          outputDir,
		Points:             points,
		Date:               date,
		Initials:           initials,
		CompressionPercent: compressionPercent,
		Progress: func(msg string, completed, total int) {
			if completed%100 == 0 || completed == total {
				log.Printf("%s\n", msg)
			}
		},
	}
	results, err := converter.Run()
	if err != nil {
		log.Fatalln(err)
	}

	failed := batch.FailureCount(results)
	log.Printf("%d of %d tasks failed\n", failed, len(results))
	for _, res := range results {
		if res.Failed() {
			log.Printf("failed: %s: %v\n", res.Coordinate, res.Err)
		}
	}

	// Stage 6: results summary for the LIMS upload step.
	resultsPath := filepath.Join(outputDir, base+"_results.html")
	if err := os.WriteFile(resultsPath, []byte(metadata.ResultsHTML(points, outputDir)), 0644); err != nil {
		log.Fatalln(err)
	}
	log.Printf("results summary saved as %s\n", resultsPath)

	if failed > 0 {
		os.Exit(1)
	}
}

// checkStopped exits between stages when the user has interrupted; there is
// no partial-cancel primitive inside a stage.
func checkStopped(ctx context.Context) {
	if ctx.Err() != nil {
		log.Fatalln("interrupted, stopping before the next stage")
	}
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
