// Package reference maps symbolic iteration references ("latest", "first",
// an index, or free text) to concrete timeline indices.
package reference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manash/genstate/pkg/models"
)

var (
	ErrEmptyHistory   = fmt.Errorf("history is empty: %w", models.ErrNotFound)
	ErrNoMatch        = fmt.Errorf("no iteration matches: %w", models.ErrNotFound)
	ErrEmptyReference = errors.New("reference cannot be empty")
)

type MatchType string

const (
	MatchIndex  MatchType = "index"
	MatchLatest MatchType = "latest"
	MatchFirst  MatchType = "first"
	MatchPrompt MatchType = "prompt"
)

type Resolution struct {
	Index     int       `json:"index"`
	MatchType MatchType `json:"matchType"`
}

type Candidate struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
}

// AmbiguousError lists every iteration whose prompt matched the reference.
type AmbiguousError struct {
	Reference  string
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	parts := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		parts[i] = fmt.Sprintf("#%d %q", c.Index, c.Prompt)
	}
	return fmt.Sprintf("reference %q matches %d iterations: %s",
		e.Reference, len(e.Candidates), strings.Join(parts, ", "))
}

func (e *AmbiguousError) Is(target error) bool {
	return target == models.ErrAmbiguous
}

// Resolve finds the iteration a reference points at. "latest" is the active
// tip of the timeline; numeric references may address any timeline entry.
func Resolve(iterations []models.Iteration, ref string) (Resolution, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Resolution{}, ErrEmptyReference
	}
	if len(iterations) == 0 {
		return Resolution{}, ErrEmptyHistory
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 || n >= len(iterations) {
			return Resolution{}, fmt.Errorf("%w: %d not in [0, %d)", models.ErrOutOfRange, n, len(iterations))
		}
		return Resolution{Index: n, MatchType: MatchIndex}, nil
	}

	switch strings.ToLower(ref) {
	case "latest":
		return Resolution{Index: latestIndex(iterations), MatchType: MatchLatest}, nil
	case "first":
		return Resolution{Index: 0, MatchType: MatchFirst}, nil
	}

	needle := strings.ToLower(ref)
	var matches []Candidate
	for i, it := range iterations {
		if strings.Contains(strings.ToLower(it.Prompt), needle) {
			matches = append(matches, Candidate{Index: i, Prompt: it.Prompt})
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{}, fmt.Errorf("%w %q", ErrNoMatch, ref)
	case 1:
		return Resolution{Index: matches[0].Index, MatchType: MatchPrompt}, nil
	default:
		return Resolution{}, &AmbiguousError{Reference: ref, Candidates: matches}
	}
}

func latestIndex(iterations []models.Iteration) int {
	for i := len(iterations) - 1; i >= 0; i-- {
		if iterations[i].Active() {
			return i
		}
	}
	return len(iterations) - 1
}
