// Package logger provides the shared leveled loggers used across the
// pipeline. Output goes to stdout/stderr by default; InitFile mirrors it
// into a log file as well.
package logger

import (
	"io"
	"log"
	"os"
)

var (
	infoLog  *log.Logger
	warnLog  *log.Logger
	errorLog *log.Logger
	debugLog *log.Logger
	logFile  *os.File

	debugEnabled bool
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

func init() {
	infoLog = log.New(os.Stdout, "INFO: ", flags)
	warnLog = log.New(os.Stdout, "WARN: ", flags)
	errorLog = log.New(os.Stderr, "ERROR: ", flags)
	debugLog = log.New(os.Stdout, "DEBUG: ", flags)
}

// InitFile mirrors all log output into the given file in addition to the
// console writers.
func InitFile(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	logFile = f

	out := io.MultiWriter(os.Stdout, f)
	errOut := io.MultiWriter(os.Stderr, f)

	infoLog = log.New(out, "INFO: ", flags)
	warnLog = log.New(out, "WARN: ", flags)
	errorLog = log.New(errOut, "ERROR: ", flags)
	debugLog = log.New(out, "DEBUG: ", flags)
	return nil
}

// SetDebug toggles debug-level output.
func SetDebug(on bool) {
	debugEnabled = on
}

func Close() {
	if logFile != nil {
		logFile.Close()
	}
}

func Infof(format string, v ...interface{}) {
	infoLog.Printf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	warnLog.Printf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	errorLog.Printf(format, v...)
}

func Debugf(format string, v ...interface{}) {
	if debugEnabled {
		debugLog.Printf(format, v...)
	}
}
