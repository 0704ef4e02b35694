// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"taskmgr/internal/service"
)

const (
	// GroupSeparator is the separator line around status group headers.
	GroupSeparator = "------------"

	// EmptyBoard is printed when there are no tasks at all.
	EmptyBoard = "no tasks yet"

	// EmptyGroup is printed under a status with no tasks.
	EmptyGroup = "    (none)"
)

// Format selects how tasks are rendered.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", Text:
		return Text, nil
	case JSON, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format: %s", s)
	}
}

// knownFields fixes the order field errors are printed in.
var knownFields = []string{"title", "description", "status", "dueDate"}

// FormatTask formats a task line.
// Format: "{ID:>4}  {TITLE}[  due {DATE}]\n"
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%4d  %s%s\n", task.ID, normalizeTitle(task.Title), dueSuffix(task))
}

// FormatTaskIndented formats a task line inside a status group.
// Format: "    {ID:>4}  {TITLE}[  due {DATE}]\n"
func FormatTaskIndented(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "    %4d  %s%s\n", task.ID, normalizeTitle(task.Title), dueSuffix(task))
}

// FormatGroupHeader formats a status group header with its task count.
func FormatGroupHeader(w io.Writer, status service.Status, count int) {
	fmt.Fprintln(w, GroupSeparator)
	fmt.Fprintf(w, "%s (%d)\n", status.Label(), count)
	fmt.Fprintln(w, GroupSeparator)
}

// FormatBoard prints every status group in display order.
func FormatBoard(w io.Writer, groups service.StatusGroups) {
	total := 0
	groups.Each(func(_ service.Status, tasks []service.Task) {
		total += len(tasks)
	})
	if total == 0 {
		fmt.Fprintln(w, EmptyBoard)
		return
	}

	groups.Each(func(status service.Status, tasks []service.Task) {
		FormatGroupHeader(w, status, len(tasks))
		if len(tasks) == 0 {
			fmt.Fprintln(w, EmptyGroup)
			return
		}
		for _, t := range tasks {
			FormatTaskIndented(w, t)
		}
	})
}

// FormatTaskDetail prints every field of a task.
func FormatTaskDetail(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "#%d %s\n", task.ID, normalizeTitle(task.Title))
	fmt.Fprintf(w, "status:      %s\n", task.Status.Label())
	if task.DueDate != nil {
		fmt.Fprintf(w, "due:         %s\n", task.DueDate)
	}
	if task.Description != "" {
		fmt.Fprintf(w, "description: %s\n", task.Description)
	}
}

// FormatFieldErrors prints one validation message per field, known fields
// first in form order, then the rest sorted by name.
func FormatFieldErrors(w io.Writer, fields map[string]string) {
	seen := make(map[string]bool, len(knownFields))
	for _, name := range knownFields {
		seen[name] = true
		if msg, ok := fields[name]; ok {
			fmt.Fprintf(w, "  %s: %s\n", name, msg)
		}
	}

	var rest []string
	for name := range fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
}

// FormatBanner prints a page-level error message.
func FormatBanner(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(w, "error: %s\n", msg)
}

// Encode writes v as JSON or YAML.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("cannot encode as %s", format)
	}
}

func dueSuffix(task service.Task) string {
	if task.DueDate == nil {
		return ""
	}
	return "  due " + task.DueDate.String()
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
