// Package workflow holds the core domain types for scientific workflows:
// files, containers, tasks and the workflow DAG that owns them.
package workflow

// kilobytesPerMegabit mirrors the conversion used throughout the catalog
// and trace data: sizes arrive in kilobytes, bandwidth in megabits/second.
const kilobytesPerMegabit = 125.0

// File is a value type: two files with the same name and size are equal,
// regardless of which task produced or consumes them.
type File struct {
	Name   string
	SizeKB int64
}

// SizeMegabits converts the file's size to megabits, the unit every
// bandwidth formula in pkg/cost works in.
func (f File) SizeMegabits() float64 {
	return float64(f.SizeKB) / kilobytesPerMegabit
}
