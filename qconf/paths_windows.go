//go:build windows

package qconf

import (
	"os"
	"path/filepath"
)

func defaultDataDir(appName string) string {
	programData := os.Getenv("PROGRAMDATA")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return filepath.Join(programData, appName)
}
