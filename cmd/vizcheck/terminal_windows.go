//go:build windows

package main

// disableCtrlCEcho does nothing on windows, there is no termios to adjust.
func disableCtrlCEcho() func() {
	return func() {}
}
