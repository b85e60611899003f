package main

import (
	"os"
	"strings"
	"time"
)

// expandPrompt resolves the escapes accepted by the prompt command:
//
//	%u user  %h host  %w working directory  %W same with ~ for $HOME
//	%d date  %t time  %% a literal %
//
// The result is fixed when the prompt is set.
func expandPrompt(prompt string) string {
	if !strings.Contains(prompt, "%") {
		return prompt
	}
	hostname, _ := os.Hostname()
	cwd, _ := os.Getwd()
	now := time.Now()

	r := strings.NewReplacer(
		"%%", "%",
		"%u", os.Getenv("USER"),
		"%h", hostname,
		"%w", cwd,
		"%W", shortenPath(cwd),
		"%d", now.Format("2006-01-02"),
		"%t", now.Format("15:04:05"),
	)
	return r.Replace(prompt)
}

func shortenPath(path string) string {
	home := os.Getenv("HOME")
	if home != "" && strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
