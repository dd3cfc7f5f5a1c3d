package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/wiggle/transform"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

func isHeader(token []byte) bool {
	s := gunsafe.BytesToString(token)
	return s == "track" || s == "browser" || s[0] == '#'
}

// ReadRegions loads the first three columns of a BED file as one range per
// region, converting the zero-based half-open BED interval [start, end) to
// the 1-based closed range [start+1, end].  A region listed more than once
// keeps its last interval.  track, browser, comment and blank lines are
// skipped.
func ReadRegions(r io.Reader) (map[string]transform.Range, error) {
	var (
		scanner = bufio.NewScanner(r)
		regions = map[string]transform.Range{}
		tokens  [3][]byte
		lineIdx int
	)
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 || isHeader(tokens[0]) {
			continue
		}
		if nToken != 3 {
			return nil, fmt.Errorf("interval.ReadRegions: line %d has fewer tokens than expected", lineIdx)
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("interval.ReadRegions: line %d", lineIdx))
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("interval.ReadRegions: line %d", lineIdx))
		}
		if start < 0 || end < start {
			return nil, fmt.Errorf("interval.ReadRegions: invalid coordinate pair on line %d", lineIdx)
		}
		regions[string(tokens[0])] = transform.Range{Start: start + 1, Stop: end}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}

// ReadRegionsFromPath is a wrapper for ReadRegions that takes a path
// instead of an io.Reader.  Gzipped files are decompressed.
func ReadRegionsFromPath(ctx context.Context, path string) (regions map[string]transform.Range, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	if regions, err = ReadRegions(reader); err != nil {
		err = errors.E(err, path)
	}
	return
}

// WriteBED writes the intervals of it as a BED track with the given
// optional name and description.
func WriteBED(w io.Writer, it *Intervals, name, description string) error {
	header := "track"
	if name != "" {
		header += fmt.Sprintf(" name=%q", name)
	}
	if description != "" {
		header += fmt.Sprintf(" description=%q", description)
	}
	out := tsv.NewWriter(w)
	out.WriteString(header)
	if err := out.EndLine(); err != nil {
		return err
	}
	for it.Scan() {
		iv := it.Interval()
		out.WriteString(iv.Region)
		out.WriteUint32(uint32(iv.Begin - 1))
		out.WriteUint32(uint32(iv.End))
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	return out.Flush()
}
