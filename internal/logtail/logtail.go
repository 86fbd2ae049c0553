package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

var levelPattern = regexp.MustCompile(`\blevel=(\w+)`)

// LineLevel extracts the logrus level from a text-formatted entry.
func LineLevel(line string) (logrus.Level, bool) {
	m := levelPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	level, err := logrus.ParseLevel(m[1])
	if err != nil {
		return 0, false
	}
	return level, true
}

// Filter keeps entries at min severity or above. Lines without a level,
// such as wrapped continuation lines, follow the entry before them.
func Filter(lines []string, min logrus.Level) []string {
	out := lines[:0:0]
	keep := true
	for _, line := range lines {
		if level, ok := LineLevel(line); ok {
			keep = level <= min
		}
		if keep {
			out = append(out, line)
		}
	}
	return out
}

var levelStyles = map[logrus.Level]lipgloss.Style{
	logrus.PanicLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
	logrus.FatalLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
	logrus.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
	logrus.WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f1fa8c")),
	logrus.InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")),
	logrus.DebugLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#8be9fd")),
	logrus.TraceLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
}

// ColorizeLine highlights the level field of a logrus text entry. Lines
// without one are returned unchanged.
func ColorizeLine(line string) string {
	loc := levelPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return line
	}
	level, err := logrus.ParseLevel(line[loc[2]:loc[3]])
	if err != nil {
		return line
	}
	style := levelStyles[level]
	var b strings.Builder
	b.WriteString(line[:loc[0]])
	b.WriteString(style.Render(line[loc[0]:loc[1]]))
	b.WriteString(line[loc[1]:])
	return b.String()
}

// ColorizeLines applies ColorizeLine to each line.
func ColorizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ColorizeLine(line)
	}
	return out
}
