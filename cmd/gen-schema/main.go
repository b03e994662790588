// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Command gen-schema prints the JSON Schema for bulk revision payloads.
// Clients can validate payload documents against it before submitting.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lorekeep/lorekeep/internal/revision"
)

func main() {
	output := flag.String("o", "", "output file (default: stdout)")
	flag.Parse()

	data, err := revision.PayloadSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gen-schema: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	if *output == "" {
		_, _ = os.Stdout.Write(data) //nolint:errcheck // stdout write failure has no recovery
		return
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "gen-schema: %v\n", err)
		os.Exit(1)
	}
}
