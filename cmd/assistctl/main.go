// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command assistctl is the command-line client for the Assist server.
//
// Usage:
//
//	assistctl say "open youtube and play music"
//	assistctl chat
//	assistctl chat --session 4f2a...
//	ASSIST_URL=http://host:9090 assistctl say "git status"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverURL holds the --server flag value.
var serverURL string

func main() {
	rootCmd := &cobra.Command{
		Use:   "assistctl",
		Short: "Client for the Aleutian Assist server",
		Long:  "assistctl sends natural-language commands to a running Assist server and prints the responses.",
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Assist server base URL (default $ASSIST_URL or http://localhost:8080)")

	rootCmd.AddCommand(newSayCommand())
	rootCmd.AddCommand(newChatCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// baseURL resolves the server address: flag, then environment, then
// the local default.
func baseURL() string {
	if serverURL != "" {
		return serverURL
	}
	if env := os.Getenv("ASSIST_URL"); env != "" {
		return env
	}
	return "http://localhost:8080"
}
