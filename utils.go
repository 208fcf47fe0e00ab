package main

import (
	"os"

	"github.com/mitchellh/go-homedir"
)

// expandPath expands environment variables and a leading tilde.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	path = os.ExpandEnv(path)
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return p
}
