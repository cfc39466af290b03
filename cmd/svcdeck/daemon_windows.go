//go:build windows

package main

import "fmt"

func daemonize(pidFile, logFile string) error {
	return fmt.Errorf("daemonize is not supported on windows")
}
