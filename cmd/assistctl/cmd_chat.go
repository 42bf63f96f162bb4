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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCommand() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation with the assistant",
		Run: func(_ *cobra.Command, _ []string) {
			runChat(sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Resume an existing session id")
	return cmd
}

// runChat reads lines from stdin and keeps one session across turns,
// so pronouns, follow-ups, and confirmations work naturally.
func runChat(sessionID string) {
	fmt.Println("Aleutian Assist — type a command, or /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		resp, err := sendCommand(line, sessionID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		// Keep the server-assigned session for the rest of the chat.
		sessionID = resp.SessionID
		fmt.Println(resp.Response)
	}

	if sessionID != "" {
		fmt.Printf("Session: %s\n", sessionID)
	}
}
