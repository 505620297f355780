package ocr

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ParseTSV reads tesseract's tsv output and returns one Token per data row.
//
// Rows for pages, blocks, paragraphs and lines carry an empty text and a
// confidence of -1; they are returned as-is so callers can apply their own
// filtering.
func ParseTSV(r io.Reader) ([]Token, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty tsv output")
	}

	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	confCol, textCol := -1, -1
	for i, name := range header {
		switch name {
		case "conf":
			confCol = i
		case "text":
			textCol = i
		}
	}
	if confCol < 0 || textCol < 0 {
		return nil, fmt.Errorf("tsv header missing conf/text columns: %q", strings.Join(header, ","))
	}

	var tokens []Token
	line := 1
	for scanner.Scan() {
		line++
		row := strings.TrimRight(scanner.Text(), "\r")
		if row == "" {
			continue
		}

		fields := strings.SplitN(row, "\t", len(header))
		if len(fields) <= confCol {
			return nil, fmt.Errorf("line %d: expected at least %d columns, got %d", line, confCol+1, len(fields))
		}

		conf, err := strconv.ParseFloat(strings.TrimSpace(fields[confCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid confidence %q: %w", line, fields[confCol], err)
		}

		text := ""
		if len(fields) > textCol {
			text = fields[textCol]
		}

		tokens = append(tokens, Token{Text: text, Confidence: int(math.Trunc(conf))})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}
