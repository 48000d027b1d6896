package pgtime

import (
	"embed"
	"strings"
)

//go:embed VERSION
var F embed.FS

const defaultVersion = "0.1.0"

func readVersion(fs embed.FS) ([]byte, error) {
	data, err := fs.ReadFile("VERSION")
	if err != nil {
		return nil, err
	}

	return data, nil
}

// GetVersion returns the build version embedded from the VERSION file.
func GetVersion() string {
	f, err := readVersion(F)
	if err != nil {
		return defaultVersion
	}

	return strings.TrimSpace(string(f))
}
