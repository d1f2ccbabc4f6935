// Command nbrun runs Jupyter notebooks as SageMaker Processing jobs.
package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/3leaps/nbrun/internal/cmd"
)

// Stamped at build time via -ldflags.
var (
	version   = "dev"
	commit    = "HEAD"
	buildDate = "unknown"
)

var exitCodePattern = regexp.MustCompile(`\(exit code (\d+)\)$`)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode extracts the embedded exit code from a CLI error, falling
// back to 1.
func exitCode(err error) int {
	m := exitCodePattern.FindStringSubmatch(err.Error())
	if len(m) == 2 {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return code
		}
	}
	return 1
}
