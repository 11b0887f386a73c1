// acqmeta exports an acquisition's metadata as a key/value CSV, a settings
// XML for downstream tracking tools, and an HTML experimental description
// printed to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/microlims/acqexport/acquisition"
	"github.com/microlims/acqexport/metadata"
)

func main() {
	var acqPath, outputDir, date, initials, setup string

	flag.StringVar(&acqPath, "acq", "", "Path to the acquisition frame store")
	flag.StringVar(&outputDir, "out", "", "Folder that will receive the metadata CSV and settings XML")
	flag.StringVar(&date, "date", "", "Date code, YYMMDD")
	flag.StringVar(&initials, "initials", "", "Experimenter initials")
	flag.StringVar(&setup, "setup", "", "Microscope setup number")
	flag.Parse()

	if acqPath == "" || outputDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	r, err := acquisition.OpenRaw(acqPath)
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		log.Fatalln(err)
	}

	flat := metadata.Flatten(r.UnstructuredMetadata())

	base := strings.TrimSuffix(filepath.Base(acqPath), filepath.Ext(acqPath))
	csvPath := filepath.Join(outputDir, base+"_metadata.csv")
	if err := metadata.WriteCSV(flat, csvPath); err != nil {
		log.Fatalln(err)
	}
	log.Printf("metadata table saved as %s\n", csvPath)

	xmlPath, err := metadata.WriteSettingsXML(flat, r.Sizes(), outputDir, date, initials, setup)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("settings XML saved as %s\n", xmlPath)

	fmt.Println(metadata.Description(flat, r.Shape()))
}
