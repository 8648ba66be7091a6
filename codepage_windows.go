//go:build windows

package main

import "golang.org/x/sys/windows"

const cpUTF8 = 65001

// setConsoleUTF8 switches the attached console to UTF-8 so ctl output and
// model answers in any script render correctly. Failures are ignored; a
// GUI-subsystem build has no console.
func setConsoleUTF8() {
	_ = windows.SetConsoleOutputCP(cpUTF8)
	_ = windows.SetConsoleCP(cpUTF8)
}
