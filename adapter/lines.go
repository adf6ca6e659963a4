package adapter

import (
	"bufio"
	"bytes"
	"log/slog"
	"regexp"
)

// Documents splits a multi-document input into parsed documents. Malformed
// entries are skipped with a warning instead of failing the whole input.
type Documents interface {
	ParseAll(data []byte) ([]any, error)
}

// JSONLines reads one JSON document per line.
type JSONLines struct {
	Logger *slog.Logger
}

func (j JSONLines) ParseAll(data []byte) ([]any, error) {
	logger := loggerOr(j.Logger)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var docs []any
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		v, err := JSON{}.Parse(text)
		if err != nil {
			logger.Warn("skipping malformed json line", "line", line, "error", err)
			continue
		}
		docs = append(docs, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// YAMLStream reads documents separated by "---" lines.
type YAMLStream struct {
	Logger *slog.Logger
}

var yamlSeparator = regexp.MustCompile(`(?m)^---[ \t]*$`)

func (y YAMLStream) ParseAll(data []byte) ([]any, error) {
	logger := loggerOr(y.Logger)

	var docs []any
	for i, part := range yamlSeparator.Split(string(data), -1) {
		if len(bytes.TrimSpace([]byte(part))) == 0 {
			continue
		}
		v, err := YAML{}.Parse([]byte(part))
		if err != nil {
			logger.Warn("skipping malformed yaml document", "document", i+1, "error", err)
			continue
		}
		if v == nil {
			continue
		}
		docs = append(docs, v)
	}
	return docs, nil
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
