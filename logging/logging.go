// Package logging contains the diagnostic logger shared by the client
// façade and CLI. Grounded on the teacher's own logging package (same
// apex/log.Logger-as-package-variable shape), but with the cli handler
// ooni-probe-cli's CLI root uses instead of the teacher's json handler: a
// terminal measurement client wants colored, human-first lines on stderr,
// not Docker-friendly structured JSON.
package logging

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
)

// Logger is the package-level logger every ndt7-client-go package logs
// through, at the verbosity the CLI's -verbose flag selects.
var Logger = &log.Logger{
	Handler: cli.New(os.Stderr),
	Level:   log.InfoLevel,
}

// SetVerbose raises Logger's level to Debug, e.g. when -verbose is passed.
func SetVerbose(verbose bool) {
	if verbose {
		Logger.Level = log.DebugLevel
	} else {
		Logger.Level = log.InfoLevel
	}
}
