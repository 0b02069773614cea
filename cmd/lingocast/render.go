package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorStage(stage string, colorize bool) string {
	if !colorize {
		return stage
	}
	switch stage {
	case "ready":
		return ansiGreen + stage + ansiReset
	case "failed":
		return ansiRed + stage + ansiReset
	default:
		return ansiYellow + stage + ansiReset
	}
}
