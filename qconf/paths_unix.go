//go:build !windows

package qconf

import "path/filepath"

func defaultDataDir(appName string) string {
	return filepath.Join("/var/lib", appName)
}
