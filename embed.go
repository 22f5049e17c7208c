package main

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed frontend/index.html
var monitorFiles embed.FS

// monitorFS returns the monitor page files rooted at "frontend".
func monitorFS() fs.FS {
	sub, err := fs.Sub(monitorFiles, "frontend")
	if err != nil {
		log.Fatalf("Embedded monitor files: %v", err)
	}
	return sub
}
