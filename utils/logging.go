package utils

import (
	"log"
	"os"
)

// Global logger variables
var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
)

// InitLogging initializes structured logging with separate stdout/stderr streams
func InitLogging() {
	// Info logs go to stdout
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Error logs go to stderr
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Configure default log package to use stderr for errors
	log.SetOutput(os.Stderr)
	log.SetPrefix("SYSTEM: ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

// LogInfo logs informational messages to stdout. Falls back to the default
// logger when InitLogging has not run (the standalone cmd binaries skip it).
func LogInfo(message string, metadata ...interface{}) {
	args := []interface{}{message}
	args = append(args, metadata...)
	if InfoLogger == nil {
		log.Println(args...)
		return
	}
	InfoLogger.Println(args...)
}

// LogError logs errors with context to stderr
func LogError(context string, err error, metadata ...interface{}) {
	if err == nil {
		return
	}
	args := []interface{}{context, err}
	args = append(args, metadata...)
	if ErrorLogger == nil {
		log.Println(args...)
		return
	}
	ErrorLogger.Println(args...)
}
