// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// =============================================================================
// Executor Contract
// =============================================================================

// Executor performs the real-world side effects of the built-in skills.
// The engine never touches the environment directly; binaries inject an
// implementation (or keep the logging no-op for dry runs and tests).
type Executor interface {
	// OpenWebsite opens url in the user's browser.
	OpenWebsite(ctx context.Context, url string) error

	// LaunchApp starts the named application.
	LaunchApp(ctx context.Context, name string) error

	// Media performs a playback action: "play", "pause", "volume_up",
	// "volume_down". Target is the song/playlist for "play", else empty.
	Media(ctx context.Context, action, target string) error

	// FileOp performs a file action: "create", "read", "list", "delete".
	// Returns displayable output (file contents, listing).
	FileOp(ctx context.Context, action, name string) (string, error)

	// Git runs a repository action: "status", "push", "force_push".
	// Returns the command output.
	Git(ctx context.Context, action string) (string, error)

	// System performs a host action: "screenshot", "lock", "shutdown",
	// "restart".
	System(ctx context.Context, action string) error
}

// NopExecutor logs every action instead of performing it. It is the
// default for tests and for running the service without host access.
type NopExecutor struct {
	Logger *slog.Logger
}

func (n NopExecutor) log(action string, args ...any) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("dry-run action", append([]any{slog.String("action", action)}, args...)...)
}

func (n NopExecutor) OpenWebsite(_ context.Context, url string) error {
	n.log("open_website", slog.String("url", url))
	return nil
}

func (n NopExecutor) LaunchApp(_ context.Context, name string) error {
	n.log("launch_app", slog.String("app", name))
	return nil
}

func (n NopExecutor) Media(_ context.Context, action, target string) error {
	n.log("media", slog.String("media_action", action), slog.String("target", target))
	return nil
}

func (n NopExecutor) FileOp(_ context.Context, action, name string) (string, error) {
	n.log("file_op", slog.String("file_action", action), slog.String("file", name))
	return "", nil
}

func (n NopExecutor) Git(_ context.Context, action string) (string, error) {
	n.log("git", slog.String("git_action", action))
	return "", nil
}

func (n NopExecutor) System(_ context.Context, action string) error {
	n.log("system", slog.String("system_action", action))
	return nil
}

// =============================================================================
// Built-in Skills
// =============================================================================

// BuiltinPlugins returns the default skill set wired to exec.
//
// Description:
//
//	Six plugins: websites, media, files, devtools, system, smalltalk.
//	Destructive intents (delete_file, shutdown, restart, git_force_push)
//	additionally declare RequiresConfirmation, so they round-trip a
//	yes/no even when the decision engine clears them to execute.
//
// Inputs:
//
//	exec - Side-effect implementation. Must not be nil; pass NopExecutor
//	for a dry-run assistant.
//
// Outputs:
//
//	[]Plugin - Plugins ready for Registry.RegisterAll.
func BuiltinPlugins(exec Executor) []Plugin {
	return []Plugin{
		websitesPlugin(exec),
		mediaPlugin(exec),
		filesPlugin(exec),
		devtoolsPlugin(exec),
		systemPlugin(exec),
		smalltalkPlugin(),
	}
}

func websitesPlugin(exec Executor) Plugin {
	return Plugin{
		Name:        "websites",
		Description: "Opens websites and applications",
		Intents: map[string]IntentSpec{
			"open_website": {
				Confidence: 0.9,
				Handler: func(ctx context.Context, inv Invocation) (string, error) {
					site := inv.Entities["website"]
					if site == "" {
						return "Which website should I open?", nil
					}
					if err := exec.OpenWebsite(ctx, "https://"+site); err != nil {
						return "", err
					}
					return fmt.Sprintf("Opening %s.", site), nil
				},
			},
			"open_app": {
				Confidence: 0.9,
				Handler: func(ctx context.Context, inv Invocation) (string, error) {
					app := inv.Entities["app"]
					if app == "" {
						return "Which app should I launch?", nil
					}
					if err := exec.LaunchApp(ctx, app); err != nil {
						return "", err
					}
					return fmt.Sprintf("Launching %s.", app), nil
				},
			},
			"search_web": {
				Confidence: 0.8,
				Handler: func(ctx context.Context, inv Invocation) (string, error) {
					query := inv.Entities["query"]
					if query == "" {
						query = inv.RawText
					}
					if err := exec.OpenWebsite(ctx, "https://duckduckgo.com/?q="+query); err != nil {
						return "", err
					}
					return fmt.Sprintf("Searching for %q.", query), nil
				},
			},
		},
	}
}

func mediaPlugin(exec Executor) Plugin {
	mediaHandler := func(action string, reply string) Handler {
		return func(ctx context.Context, inv Invocation) (string, error) {
			if err := exec.Media(ctx, action, inv.Entities["song"]); err != nil {
				return "", err
			}
			return reply, nil
		}
	}
	return Plugin{
		Name:        "media",
		Description: "Music playback and volume control",
		Intents: map[string]IntentSpec{
			"play_music": {
				Confidence: 0.9,
				Handler: func(ctx context.Context, inv Invocation) (string, error) {
					song := inv.Entities["song"]
					if err := exec.Media(ctx, "play", song); err != nil {
						return "", err
					}
					if song != "" {
						return fmt.Sprintf("Playing %s.", song), nil
					}
					return "Playing music.", nil
				},
			},
			"pause_music": {Confidence: 0.9, Handler: mediaHandler("pause", "Paused.")},
			"volume_up":   {Confidence: 0.9, Handler: mediaHandler("volume_up", "Turning it up.")},
			"volume_down": {Confidence: 0.9, Handler: mediaHandler("volume_down", "Turning it down.")},
		},
	}
}

func filesPlugin(exec Executor) Plugin {
	fileHandler := func(action, verb string) Handler {
		return func(ctx context.Context, inv Invocation) (string, error) {
			name := inv.Entities["file"]
			out, err := exec.FileOp(ctx, action, name)
			if err != nil {
				return "", err
			}
			if out != "" {
				return out, nil
			}
			if name != "" {
				return fmt.Sprintf("%s %s.", verb, name), nil
			}
			return verb + ".", nil
		}
	}
	return Plugin{
		Name:        "files",
		Description: "File creation, reading, listing, and deletion",
		Intents: map[string]IntentSpec{
			"create_file": {Confidence: 0.85, Handler: fileHandler("create", "Created")},
			"read_file":   {Confidence: 0.85, Handler: fileHandler("read", "Reading")},
			"list_files":  {Confidence: 0.85, Handler: fileHandler("list", "Listing files")},
			"delete_file": {
				Confidence:           0.85,
				RequiresConfirmation: true,
				Handler:              fileHandler("delete", "Deleted"),
			},
		},
	}
}

func devtoolsPlugin(exec Executor) Plugin {
	gitHandler := func(action, fallback string) Handler {
		return func(ctx context.Context, inv Invocation) (string, error) {
			out, err := exec.Git(ctx, action)
			if err != nil {
				return "", err
			}
			if out != "" {
				return out, nil
			}
			return fallback, nil
		}
	}
	return Plugin{
		Name:        "devtools",
		Description: "Git repository operations",
		Intents: map[string]IntentSpec{
			"git_status": {Confidence: 0.9, Handler: gitHandler("status", "Working tree is clean.")},
			"git_push":   {Confidence: 0.9, Handler: gitHandler("push", "Pushed.")},
			"git_force_push": {
				Confidence:           0.9,
				RequiresConfirmation: true,
				Handler:              gitHandler("force_push", "Force-pushed."),
			},
		},
	}
}

func systemPlugin(exec Executor) Plugin {
	sysHandler := func(action, reply string) Handler {
		return func(ctx context.Context, inv Invocation) (string, error) {
			if err := exec.System(ctx, action); err != nil {
				return "", err
			}
			return reply, nil
		}
	}
	return Plugin{
		Name:        "system",
		Description: "Host control: screenshot, lock, power",
		Intents: map[string]IntentSpec{
			"screenshot":  {Confidence: 0.9, Handler: sysHandler("screenshot", "Screenshot taken.")},
			"lock_screen": {Confidence: 0.9, Handler: sysHandler("lock", "Locking the screen.")},
			"shutdown": {
				Confidence:           0.9,
				RequiresConfirmation: true,
				Handler:              sysHandler("shutdown", "Shutting down."),
			},
			"restart": {
				Confidence:           0.9,
				RequiresConfirmation: true,
				Handler:              sysHandler("restart", "Restarting."),
			},
		},
	}
}

func smalltalkPlugin() Plugin {
	return Plugin{
		Name:        "smalltalk",
		Description: "Greetings, time, and light conversation",
		Intents: map[string]IntentSpec{
			"greeting": {
				Confidence: 0.95,
				Handler: func(context.Context, Invocation) (string, error) {
					return "Hello! What can I do for you?", nil
				},
			},
			"farewell": {
				Confidence: 0.95,
				Handler: func(context.Context, Invocation) (string, error) {
					return "Goodbye!", nil
				},
			},
			"thanks": {
				Confidence: 0.95,
				Handler: func(context.Context, Invocation) (string, error) {
					return "You're welcome.", nil
				},
			},
			"time_query": {
				Confidence: 0.95,
				Handler: func(context.Context, Invocation) (string, error) {
					return "It's " + time.Now().Format("3:04 PM") + ".", nil
				},
			},
			"tell_joke": {
				Confidence: 0.9,
				Handler: func(context.Context, Invocation) (string, error) {
					return "Why do programmers prefer dark mode? Because light attracts bugs.", nil
				},
			},
			"clarify_request": {
				Confidence: 0.9,
				Handler: func(_ context.Context, inv Invocation) (string, error) {
					frag := inv.Entities["fragment"]
					if frag != "" {
						return fmt.Sprintf("What would you like me to %s?", frag), nil
					}
					return "Could you give me a bit more detail?", nil
				},
			},
		},
	}
}
