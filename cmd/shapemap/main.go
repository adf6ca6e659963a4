// Package main provides the CLI entrypoint for shapemap.
//
// shapemap converts documents between formats through models declared in a
// YAML definition file:
//
//	shapemap convert -d models.yaml -m Ceramic --to xml ceramic.json
//	shapemap check models.yaml
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
