package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"movie-discovery-recommender/internal/models"
)

// prompter reads answers line by line from the terminal.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

// ask prints question and returns the trimmed answer; ok is false at EOF.
func (p *prompter) ask(question string) (string, bool) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// parseList splits a comma separated answer. Blank or "any" means no constraint.
func parseList(answer string) []string {
	out := []string{}
	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "any") {
			return []string{}
		}
		out = append(out, part)
	}
	return out
}

// parseRange reads "min-max", "min-", "-max" or a blank answer.
func parseRange(answer string) (lo, hi *int, err error) {
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.EqualFold(answer, "any") {
		return nil, nil, nil
	}
	left, right, found := strings.Cut(answer, "-")
	if !found {
		return nil, nil, fmt.Errorf("expected min-max, got %q", answer)
	}
	if lo, err = parseOptionalInt(left); err != nil {
		return nil, nil, err
	}
	if hi, err = parseOptionalInt(right); err != nil {
		return nil, nil, err
	}
	if lo != nil && hi != nil && *lo > *hi {
		return nil, nil, fmt.Errorf("range %d-%d is inverted", *lo, *hi)
	}
	return lo, hi, nil
}

func parseOptionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &v, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "any") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &v, nil
}

func formatItem(item models.CatalogItem) string {
	var b strings.Builder
	b.WriteString(item.Title)
	if item.Year != nil {
		fmt.Fprintf(&b, " (%d)", *item.Year)
	}
	fmt.Fprintf(&b, "  %.1f/10 from %d votes", item.VoteAverage, item.VoteCount)
	if len(item.Genres) > 0 {
		fmt.Fprintf(&b, "  [%s]", strings.Join(item.Genres, ", "))
	}
	if item.Runtime != nil {
		fmt.Fprintf(&b, "  %d min", *item.Runtime)
	}
	if len(item.Providers) > 0 {
		fmt.Fprintf(&b, "  on %s", strings.Join(item.Providers, ", "))
	}
	return b.String()
}

func formatRange(lo, hi *int) string {
	switch {
	case lo == nil && hi == nil:
		return "Any"
	case hi == nil:
		return fmt.Sprintf("%d-", *lo)
	case lo == nil:
		return fmt.Sprintf("-%d", *hi)
	default:
		return fmt.Sprintf("%d-%d", *lo, *hi)
	}
}

func formatList(values []string) string {
	if len(values) == 0 {
		return "Any"
	}
	return strings.Join(values, ", ")
}
