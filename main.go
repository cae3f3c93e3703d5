// chatdoc - streaming conversations inside a plain text document.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatdoc/internal/config"
	"github.com/jeranaias/chatdoc/internal/document"
	"github.com/jeranaias/chatdoc/internal/gemini"
	"github.com/jeranaias/chatdoc/internal/session"
	"github.com/jeranaias/chatdoc/internal/ui/editor"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async streaming
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// sendToProgram forwards a message from a session goroutine into the Bubble
// Tea loop. Safe before the program exists; early messages are dropped.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "version" || args[0] == "--version") {
		fmt.Printf("chatdoc %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg := config.Global()
	logger := newLogger(cfg)

	path, lines, err := loadDocument(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatdoc: %v\n", err)
		os.Exit(1)
	}

	buf := document.NewBuffer(lines)
	buf.SetOnChange(func() { sendToProgram(editor.DocumentChangedMsg{}) })

	client := gemini.NewClient(gemini.APIKeyFromEnv(), cfg.Model,
		gemini.WithRateLimit(cfg.RequestsPerSecond, cfg.RequestBurst),
		gemini.WithLogger(logger.Printf),
	)

	registry := session.NewRegistry()
	registry.Subscribe(func(count int) {
		sendToProgram(editor.SessionCountMsg{Count: count})
	})

	manager := session.NewManager(registry, client,
		session.WithFlushWindow(cfg.FlushWindow()),
		session.WithLogger(logger.Printf),
		session.WithNotifier(func(level session.NoticeLevel, text string) {
			sendToProgram(editor.NoticeMsg{Level: level, Text: text})
		}),
		session.WithDoneFunc(func(s *session.Session, err error) {
			sendToProgram(editor.SessionDoneMsg{ID: s.ID(), Err: err})
		}),
	)

	p := tea.NewProgram(editor.New(path, buf, manager, cfg.Model), tea.WithAltScreen())
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if stop, err := config.Watch(func(c *config.Config) {
		sendToProgram(editor.ConfigReloadedMsg{Model: c.Model})
	}); err == nil {
		defer stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatdoc: %v\n", err)
		os.Exit(1)
	}
}

// loadDocument reads the conversation file named on the command line. A
// missing or absent file starts an empty conversation seeded with a USER
// marker so the first edit is attributed correctly.
func loadDocument(args []string) (string, []string, error) {
	path := ""
	var lines []string

	if len(args) > 0 {
		path = args[0]
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		case !os.IsNotExist(err):
			return "", nil, err
		}
	}

	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		lines = []string{document.UserMarker, "", ""}
	}
	return path, lines, nil
}

// newLogger opens the diagnostic log file. The TUI owns the terminal, so
// diagnostics never go to stdout; if the file cannot be opened they are
// discarded.
func newLogger(cfg *config.Config) *log.Logger {
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = config.DefaultLogFile()
	}
	if err := os.MkdirAll(config.Dir(), 0755); err == nil {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			return log.New(f, "", log.LstdFlags)
		}
	}
	return log.New(io.Discard, "", 0)
}
