package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// byteRange is a parsed, clamped HTTP byte range.
type byteRange struct {
	start int64
	end   int64 // inclusive
}

func (r byteRange) length() int64 {
	return r.end - r.start + 1
}

func (r byteRange) contentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.start, r.end, size)
}

var errMalformedRange = errors.New("malformed range header")

// parseRange parses a single-range header value against a resource of the
// given size. Supported forms: bytes=start-end, bytes=start-, bytes=-suffix.
// end is clamped to size-1; start>end, start beyond EOF and unparsable
// numbers are rejected. Multi-range requests are not supported and fall
// back to a full response by returning errMalformedRange.
func parseRange(header string, size int64) (byteRange, error) {
	value, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(value, ",") {
		return byteRange{}, errMalformedRange
	}

	startStr, endStr, ok := strings.Cut(value, "-")
	if !ok {
		return byteRange{}, errMalformedRange
	}

	// bytes=-suffix: the last N bytes.
	if startStr == "" {
		suffix, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || suffix <= 0 {
			return byteRange{}, errMalformedRange
		}
		if suffix > size {
			suffix = size
		}
		return byteRange{start: size - suffix, end: size - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, errMalformedRange
	}
	if start >= size {
		return byteRange{}, fmt.Errorf("%w: start %d beyond size %d", errMalformedRange, start, size)
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return byteRange{}, errMalformedRange
		}
		if end >= size {
			end = size - 1
		}
	}
	if start > end {
		return byteRange{}, fmt.Errorf("%w: start %d after end %d", errMalformedRange, start, end)
	}
	return byteRange{start: start, end: end}, nil
}
