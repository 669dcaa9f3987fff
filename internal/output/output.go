// Package output names, renders and persists scan results.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/skryper/internal/scanner"
)

const (
	timestampLayout     = "20060102_150405"
	structureFileSuffix = "structure.txt"
	logFileSuffix       = "log.txt"
	fileNameSeparator   = "_"
	fallbackRootName    = "root"
	lineSeparator       = "\n"
	directoryLineSuffix = "/"

	printStructureErrorFormat = "print structure of %s: %w"
	writeStructureErrorFormat = "write structure to %s: %w"
	statusSavedFormat         = "Directory structure saved to %s"
)

// Summary counts the entries shown in a scan result.
type Summary struct {
	Directories int
	Files       int
	Warnings    int
	Tokens      int
	Model       string
}

// StructureFileName returns the default name of the file holding a rendered tree,
// for example 20240102_030405_project_structure.txt.
func StructureFileName(moment time.Time, rootName string) string {
	return timestampedName(moment, rootName, structureFileSuffix)
}

// LogFileName returns the name of the run log saved next to a structure file.
func LogFileName(moment time.Time, rootName string) string {
	return timestampedName(moment, rootName, logFileSuffix)
}

func timestampedName(moment time.Time, rootName string, suffix string) string {
	return strings.Join([]string{moment.Format(timestampLayout), safeFileNameComponent(rootName), suffix}, fileNameSeparator)
}

// safeFileNameComponent keeps a root display name usable inside a single file name.
func safeFileNameComponent(rootName string) string {
	trimmed := strings.Trim(strings.TrimSpace(rootName), `/\:`)
	if trimmed == "" {
		return fallbackRootName
	}
	return strings.NewReplacer("/", fileNameSeparator, `\`, fileNameSeparator, ":", fileNameSeparator).Replace(trimmed)
}

// Render joins the result lines with newlines and no trailing newline.
func Render(result scanner.Result) string {
	return strings.Join(result.Lines, lineSeparator)
}

// WriteStructure writes the rendered result to writer as a terminated line.
func WriteStructure(writer io.Writer, result scanner.Result) error {
	if _, err := io.WriteString(writer, Render(result)+lineSeparator); err != nil {
		return fmt.Errorf(printStructureErrorFormat, result.RootPath, err)
	}
	return nil
}

// SaveStructure writes the rendered result to destinationPath, creating its directory when needed.
func SaveStructure(destinationPath string, result scanner.Result) error {
	if directory := filepath.Dir(destinationPath); directory != "" {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf(writeStructureErrorFormat, destinationPath, err)
		}
	}
	if err := os.WriteFile(destinationPath, []byte(Render(result)), 0o644); err != nil {
		return fmt.Errorf(writeStructureErrorFormat, destinationPath, err)
	}
	return nil
}

// Summarize counts the directories and files shown below the root line.
func Summarize(result scanner.Result) Summary {
	summary := Summary{Warnings: len(result.Warnings)}
	for index, line := range result.Lines {
		if index == 0 {
			continue
		}
		if strings.HasSuffix(line, directoryLineSuffix) {
			summary.Directories++
			continue
		}
		summary.Files++
	}
	return summary
}

// FormatSummaryLine renders a one-line summary of a scan.
func FormatSummaryLine(summary Summary) string {
	directoryLabel := "directories"
	if summary.Directories == 1 {
		directoryLabel = "directory"
	}
	fileLabel := "files"
	if summary.Files == 1 {
		fileLabel = "file"
	}
	extra := ""
	if summary.Tokens > 0 {
		extra = fmt.Sprintf(", %d tokens", summary.Tokens)
	}
	modelSuffix := ""
	if summary.Model != "" && summary.Tokens > 0 {
		modelSuffix = fmt.Sprintf(" (model: %s)", summary.Model)
	}
	warningSuffix := ""
	if summary.Warnings > 0 {
		warningSuffix = fmt.Sprintf(", %d skipped", summary.Warnings)
	}
	return fmt.Sprintf("Summary: %d %s, %d %s%s%s%s", summary.Directories, directoryLabel, summary.Files, fileLabel, extra, modelSuffix, warningSuffix)
}

// FormatSavedMessage renders the status line printed after a structure file is written.
func FormatSavedMessage(destinationPath string) string {
	return fmt.Sprintf(statusSavedFormat, destinationPath)
}
