package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	commentPrefix     = "#"
	byteOrderMark     = "\ufeff"
	errorLineFormat   = "line %d: %w"
	errorScanFormat   = "scanning rules: %w"
	errorNilReaderMsg = "rule reader is nil"
)

// LoadRules reads the rule source at ruleSourcePath and returns its rules in source order.
// A missing source yields no rules and no error. Any other failure, including
// content that is not valid UTF-8, is reported as a *RuleSourceReadError.
//
// #nosec G304
func LoadRules(ruleSourcePath string) ([]Rule, error) {
	fileHandle, openError := os.Open(ruleSourcePath)
	if openError != nil {
		if errors.Is(openError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &RuleSourceReadError{Path: ruleSourcePath, Err: openError}
	}
	defer func() {
		_ = fileHandle.Close()
	}()

	loadedRules, parseError := LoadRulesFrom(fileHandle)
	if parseError != nil {
		return nil, &RuleSourceReadError{Path: ruleSourcePath, Err: parseError}
	}
	return loadedRules, nil
}

// LoadRulesFrom parses rules from reader. Blank lines and lines starting with
// "#" are discarded; every remaining line is normalized with NormalizePattern.
func LoadRulesFrom(reader io.Reader) ([]Rule, error) {
	if reader == nil {
		return nil, errors.New(errorNilReaderMsg)
	}
	var loadedRules []Rule
	lineNumber := 0
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		lineNumber++
		rawLine := scanner.Text()
		if lineNumber == 1 {
			rawLine = strings.TrimPrefix(rawLine, byteOrderMark)
		}
		if !utf8.ValidString(rawLine) {
			return nil, fmt.Errorf(errorLineFormat, lineNumber, ErrCorruptRuleSource)
		}
		trimmedLine := strings.TrimSpace(rawLine)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		normalizedPattern := NormalizePattern(trimmedLine)
		if normalizedPattern == "" {
			continue
		}
		loadedRules = append(loadedRules, Rule(normalizedPattern))
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf(errorScanFormat, scanError)
	}
	return loadedRules, nil
}
