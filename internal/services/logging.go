package services

import (
	"log"
	"os"
	"strings"
)

const (
	infoPrefix  = "[CALCULATOR] "
	debugPrefix = "[CALCULATOR DEBUG] "
)

// verbose turns on per-attempt model logging (raw answers, payload sizes).
// Set CALCULATOR_DEBUG to 1, true or yes before the process starts.
var verbose = envFlag("CALCULATOR_DEBUG")

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// debugLog is for model payloads and resize details; it can be noisy and may
// contain user content, so it stays off unless verbose is set.
func debugLog(format string, args ...interface{}) {
	if !verbose {
		return
	}
	log.Printf(debugPrefix+format, args...)
}

// infoLog records request outcomes: rejected images, fallbacks, upstream failures.
func infoLog(format string, args ...interface{}) {
	log.Printf(infoPrefix+format, args...)
}

// preview cuts s to n bytes for log lines.
func preview(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
