package ingest

import (
	"bufio"
	"bytes"
	"errors"
)

// Candidates are the delimiters Sniff chooses from, in tie-break order.
var Candidates = []rune{',', '\t', ';', '|'}

// DefaultDelimiter is assumed when sniffing fails.
const DefaultDelimiter = ','

const (
	sniffLines       = 20
	sniffConsistency = 0.9
)

// ErrNoDelimiter is returned by Sniff when no candidate splits the sample
// consistently.
var ErrNoDelimiter = errors.New("could not determine delimiter")

// Sniff detects the delimiter of a delimited text sample. A candidate wins
// when it occurs the same non-zero number of times, outside quotes, on every
// sampled line; failing that, on at least 90% of them. Ties go to the
// candidate listed first in Candidates.
func Sniff(sample []byte) (rune, error) {
	lines := sampleLines(sample, sniffLines)
	if len(lines) == 0 {
		return DefaultDelimiter, ErrNoDelimiter
	}

	for _, threshold := range []float64{1.0, sniffConsistency} {
		best, bestScore := rune(0), 0.0
		for _, d := range Candidates {
			score := consistency(lines, d)
			if score >= threshold && score > bestScore {
				best, bestScore = d, score
			}
		}
		if best != 0 {
			return best, nil
		}
	}
	return DefaultDelimiter, ErrNoDelimiter
}

// consistency returns the share of lines whose delimiter count equals the
// most common non-zero count.
func consistency(lines [][]byte, delim rune) float64 {
	freq := make(map[int]int)
	for _, line := range lines {
		freq[countOutsideQuotes(line, delim)]++
	}

	mode, modeCount := 0, 0
	for count, lines := range freq {
		if count == 0 {
			continue
		}
		if lines > modeCount || lines == modeCount && count > mode {
			mode, modeCount = count, lines
		}
	}
	if mode == 0 {
		return 0
	}
	return float64(modeCount) / float64(len(lines))
}

func countOutsideQuotes(line []byte, delim rune) int {
	n, quoted := 0, false
	for _, r := range string(line) {
		switch {
		case r == '"':
			quoted = !quoted
		case r == delim && !quoted:
			n++
		}
	}
	return n
}

// sampleLines returns up to max non-blank lines. A quoted field spanning
// lines is kept whole.
func sampleLines(sample []byte, max int) [][]byte {
	var (
		lines   [][]byte
		pending []byte
	)
	scanner := bufio.NewScanner(bytes.NewReader(sample))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() && len(lines) < max {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if pending != nil {
			pending = append(append(pending, '\n'), line...)
		} else {
			pending = append([]byte(nil), line...)
		}
		if bytes.Count(pending, []byte{'"'})%2 == 1 {
			continue
		}
		if len(bytes.TrimSpace(pending)) > 0 {
			lines = append(lines, pending)
		}
		pending = nil
	}
	return lines
}
