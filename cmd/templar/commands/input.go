package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/templar/pkg/templar"
)

const stdinName = "-"

// parseSize parses a human-readable size such as "5MB". Empty and "0" mean
// no limit.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

// readDocuments reads every path, or stdin when paths is empty or "-".
// Inputs larger than maxSize bytes are rejected when maxSize > 0.
func readDocuments(stdin io.Reader, paths []string, maxSize int64) ([]templar.Document, error) {
	if len(paths) == 0 {
		paths = []string{stdinName}
	}

	docs := make([]templar.Document, 0, len(paths))
	for _, path := range paths {
		html, err := readDocument(stdin, path, maxSize)
		if err != nil {
			return nil, err
		}
		docs = append(docs, templar.Document{Name: path, HTML: html})
	}
	return docs, nil
}

func readDocument(stdin io.Reader, path string, maxSize int64) (string, error) {
	r, src := stdin, "stdin"
	if path != stdinName {
		f, err := os.Open(path) //#nosec G304 -- CLI tool reads user-specified templates
		if err != nil {
			return "", err
		}
		defer func() { _ = f.Close() }()
		r, src = f, path
	}

	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return "", fmt.Errorf("%s is larger than %s", src, humanize.Bytes(uint64(maxSize)))
	}
	return string(data), nil
}
