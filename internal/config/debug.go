package config

import (
	"os"
	"strconv"
)

func IsDebug() bool {
	if os.Getenv("RAGMEM_DEBUG") == "1" {
		return true
	}
	v, _ := strconv.ParseBool(os.Getenv("DEBUG"))
	return v
}

// LogDir is read before the config structs, since the logger comes first.
func LogDir() string {
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		return dir
	}
	return "./logs"
}
