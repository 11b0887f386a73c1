package metadata

import (
	"os"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// Row is one flattened metadata entry in the CSV export.
type Row struct {
	Key   string `csv:"Key"`
	Value string `csv:"Value"`
}

// WriteCSV exports the flattened metadata as a Key,Value CSV in sorted key
// order.
func WriteCSV(flat map[string]string, path string) error {
	rows := make([]Row, 0, len(flat))
	for _, k := range SortedKeys(flat) {
		rows = append(rows, Row{Key: k, Value: flat[k]})
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return pfx.Err(gocsv.MarshalFile(&rows, f))
}
