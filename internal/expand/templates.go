package expand

import "fmt"

const (
	logRunTemplate = `#!/bin/sh
exec logutil-service %s
`
	// one-shots have no log pipeline in s6-rc: up runs the compiled run
	// script with its output piped to the forwarder,
	// see https://github.com/just-containers/s6-overlay/issues/442
	logUpTemplate = `#!/command/execlineb -P
pipeline -w { logutil-service %s }
fdmove -c 2 1
%s
`
	noRestartOnFailure = `#!/bin/sh
exit 125
`
)

// LogRun is the run script of a derived log forwarder service.
func LogRun(dir string) string {
	return fmt.Sprintf(logRunTemplate, dir)
}

// LogUp is the up script of a one-shot service with the log extension.
// runScript is the absolute path of the service's compiled run file.
func LogUp(dir, runScript string) string {
	return fmt.Sprintf(logUpTemplate, dir, runScript)
}

// NoRestartOnFailure is a finish script telling the runtime to not restart
// the service.
func NoRestartOnFailure() string {
	return noRestartOnFailure
}
