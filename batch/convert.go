// Package batch converts every frame of an acquisition to an 8-bit PNG in
// parallel, isolating per-frame failures and reporting progress as tasks
// complete.
package batch

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/microlims/acqexport/acquisition"
	"github.com/microlims/acqexport/windowing"
)

// Task is one unit of work: a single (position, time, z, channel)
// coordinate with its window and destination path. Tasks are immutable and
// consumed exactly once.
type Task struct {
	Coordinate acquisition.Coordinate
	Window     windowing.Point
	OutPath    string
}

// Result is the outcome of one task, in the order tasks were observed to
// complete. Err carries the coordinate's failure; a nil Err means OutPath
// was written.
type Result struct {
	Coordinate acquisition.Coordinate
	OutPath    string
	Err        error
}

// Failed reports whether the task produced a failure record.
func (r Result) Failed() bool { return r.Err != nil }

// FailureCount counts failed results so callers can distinguish "N of M
// tasks failed" from a clean batch.
func FailureCount(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// ProgressFunc receives a progress update each time a task completes.
// Completion order is unspecified; only the counts are meaningful.
type ProgressFunc func(message string, completed, total int)

// Converter drives the parallel conversion of one acquisition. Each worker
// re-opens the acquisition independently: acquisition readers are not
// assumed safe for concurrent use, so no handle is shared.
type Converter struct {
	AcquisitionPath string
	OutputDir       string
	Points          windowing.Store
	Date            string
	Initials        string

	// CompressionPercent is the 0-100 input mapped by CompressionLevel.
	// Note that the zero value means maximum compression.
	CompressionPercent int

	// Workers bounds the pool; defaults to runtime.NumCPU().
	Workers int

	Progress ProgressFunc

	// Writer defaults to PNGWriter.
	Writer ImageWriter

	// Open defaults to opening a raw frame store. Overridable so callers
	// can supply other acquisition sources.
	Open func(path string) (acquisition.Reader, error)
}

// Run enumerates the full position x time x z x channel task space and
// converts every frame. Per-frame failures are recorded in the returned
// results and never abort sibling tasks; Run itself fails only on
// configuration errors such as an unreadable acquisition or an unwritable
// output tree. The batch is complete when every task has reported.
func (c *Converter) Run() ([]Result, error) {
	open := c.Open
	if open == nil {
		open = func(path string) (acquisition.Reader, error) { return acquisition.OpenRaw(path) }
	}

	// Scoped open to read dimensions; workers each open their own handle.
	r, err := open(c.AcquisitionPath)
	if err != nil {
		return nil, err
	}
	dims := r.Sizes()
	if err := r.Close(); err != nil {
		return nil, err
	}

	tasks, err := c.enumerate(dims)
	if err != nil {
		return nil, err
	}

	level := CompressionLevel(c.CompressionPercent)
	log.Printf("batch: %d tasks, compression level %d (from %d%%)", len(tasks), level, c.CompressionPercent)

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan Result)
	collected := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		completed := 0
		for res := range results {
			completed++
			if c.Progress != nil {
				c.Progress(fmt.Sprintf("Converting image %d of %d", completed, len(tasks)), completed, len(tasks))
			}
			collected = append(collected, res)
		}
		close(done)
	}()

	sem := make(chan bool, workers)
	for _, task := range tasks {
		sem <- true
		go func(task Task) {
			defer func() { <-sem }()
			results <- c.convertOne(open, task, level)
		}(task)
	}

	// Fill the semaphore to wait for every in-flight worker.
	for i := 0; i < cap(sem); i++ {
		sem <- true
	}
	close(results)
	<-done

	return collected, nil
}

// enumerate builds the task list in coordinate order and creates the
// per-position output directories. Directory creation failure is a
// configuration error, fatal before any work starts.
func (c *Converter) enumerate(dims acquisition.Dimensions) ([]Task, error) {
	tasks := make([]Task, 0, dims.TotalFrames()*dims.Channels)

	for p := 0; p < dims.Positions; p++ {
		posDir := filepath.Join(c.OutputDir, PositionDirName(c.Date, c.Initials, p))
		if err := os.MkdirAll(posDir, os.ModePerm); err != nil {
			return nil, err
		}

		for t := 0; t < dims.Timepoints; t++ {
			for z := 0; z < dims.ZStacks; z++ {
				for ch := 0; ch < dims.Channels; ch++ {
					coord := acquisition.Coordinate{Position: p, Timepoint: t, Z: z, Channel: ch}
					tasks = append(tasks, Task{
						Coordinate: coord,
						Window:     c.Points.Lookup(ch),
						OutPath:    filepath.Join(posDir, FrameFileName(c.Date, c.Initials, coord)),
					})
				}
			}
		}
	}

	return tasks, nil
}

func (c *Converter) convertOne(open func(string) (acquisition.Reader, error), task Task, level int) Result {
	fail := func(err error) Result {
		return Result{Coordinate: task.Coordinate, OutPath: task.OutPath, Err: fmt.Errorf("frame %s: %w", task.Coordinate, err)}
	}

	r, err := open(c.AcquisitionPath)
	if err != nil {
		return fail(err)
	}
	defer r.Close()

	dims := r.Sizes()
	index := dims.FrameIndex(task.Coordinate.Position, task.Coordinate.Timepoint, task.Coordinate.Z)

	plane, err := acquisition.ExtractPlane(r, index, task.Coordinate.Channel)
	if err != nil {
		return fail(err)
	}

	img := &image.Gray{
		Pix:    windowing.Apply8(plane.Pix, task.Window),
		Stride: plane.Width,
		Rect:   image.Rect(0, 0, plane.Width, plane.Height),
	}

	writer := c.Writer
	if writer == nil {
		writer = PNGWriter{}
	}
	if err := writer.WriteGray(task.OutPath, img, level); err != nil {
		return fail(err)
	}

	return Result{Coordinate: task.Coordinate, OutPath: task.OutPath}
}
