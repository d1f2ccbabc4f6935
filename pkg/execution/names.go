package execution

import (
	"regexp"
	"strings"
	"time"
)

// Container-local mount paths. These are owned by the container
// contract (the runner image reads them), not configurable here.
const (
	// ContainerInputDir is where the input artifact is mounted.
	ContainerInputDir = "/opt/ml/processing/input/"

	// ContainerOutputDir is where the container writes results.
	ContainerOutputDir = "/opt/ml/processing/output/"
)

// jobNamePrefix tags every generated job name.
const jobNamePrefix = "papermill-"

// maxJobNameLen is the service limit on processing job names.
const maxJobNameLen = 63

// timestampLayout renders a fixed-width 19-character UTC timestamp.
const timestampLayout = "2006-01-02-15-04-05"

var jobNameSanitizer = regexp.MustCompile(`[^-a-zA-Z0-9]`)

// derived holds the names and container paths produced for one
// execution from the normalized notebook identifier and a timestamp.
type derived struct {
	// Timestamp is the UTC submission timestamp (YYYY-MM-DD-HH-MM-SS).
	Timestamp string

	// JobName is the collision-resistant processing job name.
	JobName string

	// NotebookFile is the notebook's base filename.
	NotebookFile string

	// LocalInput is the container-local path of the input artifact.
	LocalInput string

	// LocalOutput is the container-local path of the result notebook.
	LocalOutput string

	// ResultFile is the output artifact filename ({stem}-{ts}{ext}).
	ResultFile string
}

// deriveNames computes the job name and container paths for a
// normalized request.
//
// The job name is prefix + sanitized stem + "-" + timestamp, with the
// stem truncated so the fixed-width timestamp always fits within the
// 63-character service limit. Rapid repeated submissions of the same
// notebook within one second produce the same name; the caller owns
// avoiding that (the service rejects the duplicate).
func deriveNames(notebook, inputPath string, now time.Time) derived {
	ts := now.UTC().Format(timestampLayout)

	notebookFile := baseName(notebook)
	stem, ext := splitExt(notebookFile)

	name := jobNamePrefix + jobNameSanitizer.ReplaceAllString(stem, "-")
	if budget := maxJobNameLen - len(ts) - 1; len(name) > budget {
		name = name[:budget]
	}
	name += "-" + ts

	resultFile := stem + "-" + ts + ext

	return derived{
		Timestamp:    ts,
		JobName:      name,
		NotebookFile: notebookFile,
		LocalInput:   ContainerInputDir + baseName(inputPath),
		LocalOutput:  ContainerOutputDir + resultFile,
		ResultFile:   resultFile,
	}
}

// baseName returns the final slash-separated segment of a path or URI.
func baseName(p string) string {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// splitExt splits a filename into stem and extension (including the dot).
// Dotfiles like ".ipynb_checkpoints" are treated as all stem.
func splitExt(name string) (stem, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}
