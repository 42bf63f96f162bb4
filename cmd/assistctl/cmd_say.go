// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// CommandRequest mirrors the server's POST /v1/assist/command body.
type CommandRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// CommandResponse mirrors the server's command result.
type CommandResponse struct {
	SessionID string     `json:"session_id"`
	Response  string     `json:"response"`
	Decisions []Decision `json:"decisions"`
	Segments  []string   `json:"segments"`
}

// Decision is the client-side view of one segment decision.
type Decision struct {
	Kind       int     `json:"kind"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Reason     string  `json:"reason"`
	Prompt     string  `json:"prompt"`
}

func newSayCommand() *cobra.Command {
	var sessionID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "say <text>",
		Short: "Send one command and print the response",
		Args:  cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			text := strings.Join(args, " ")
			resp, err := sendCommand(text, sessionID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			fmt.Println(resp.Response)
			if verbose {
				for _, d := range resp.Decisions {
					fmt.Printf("  [%s] %s (%.2f) — %s\n", d.Source, d.Intent, d.Confidence, d.Reason)
				}
			}
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to continue")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print per-segment decision details")
	return cmd
}

// sendCommand posts one utterance to the server.
func sendCommand(text, sessionID string) (*CommandResponse, error) {
	body, err := json.Marshal(CommandRequest{Text: text, SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(baseURL()+"/v1/assist/command", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var out CommandResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return &out, nil
}
