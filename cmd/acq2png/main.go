// acq2png converts every frame of an acquisition into per-position folders
// of windowed 8-bit PNGs, in parallel.
package main

import (
	"flag"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/microlims/acqexport/batch"
	"github.com/microlims/acqexport/windowing"
)

func main() {
	start := time.Now()
	log.Println("acq2png start")
	defer func() {
		log.Printf("acq2png end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var acqPath, outputDir, pointsPath, date, initials string
	var compressionPercent, workers int

	flag.StringVar(&acqPath, "acq", "", "Path to the acquisition frame store to convert")
	flag.StringVar(&outputDir, "out", "", "Folder that will receive one subfolder per position")
	flag.StringVar(&pointsPath, "points", "", "(Optional) Path to the black/white point JSON store. Channels without a stored point use the full 16-bit range.")
	flag.StringVar(&date, "date", time.Now().Format("060102"), "Date code used in output names, YYMMDD")
	flag.StringVar(&initials, "initials", "", "Experimenter initials used in output names")
	flag.IntVar(&compressionPercent, "compression", 100, "Compression percent: 100 = none, 0 = maximum")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Number of parallel conversion workers")
	flag.Parse()

	if acqPath == "" || outputDir == "" || initials == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	points := make(windowing.Store)
	if pointsPath != "" {
		var err error
		points, err = windowing.LoadStore(pointsPath)
		if err != nil {
			log.Fatalln(err)
		}
	}

	converter := &batch.Converter{
		AcquisitionPath:    acqPath,
		OutputDir:          outputDir,
		Points:             points,
		Date:               date,
		Initials:           initials,
		CompressionPercent: compressionPercent,
		Workers:            workers,
		Progress: func(msg string, completed, total int) {
			log.Printf("%s\n", msg)
		},
	}

	results, err := converter.Run()
	if err != nil {
		log.Fatalln(err)
	}

	failed := batch.FailureCount(results)
	log.Printf("%d of %d tasks failed\n", failed, len(results))
	for _, r := range results {
		if r.Failed() {
			log.Printf("failed: %s: %v\n", r.Coordinate, r.Err)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
