package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/tallyhq/tally/internal/types"
)

// outputJSON outputs data as pretty-printed JSON to stdout.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// statusLabel renders a status with semantic coloring.
func statusLabel(s types.Status) string {
	switch s {
	case types.StatusCompleted:
		return color.GreenString(string(s))
	case types.StatusInProgress:
		return color.YellowString(string(s))
	case types.StatusOnHold:
		return color.CyanString(string(s))
	case types.StatusDiscarded:
		return color.New(color.Faint).Sprint(string(s))
	default:
		return string(s)
	}
}

// progressBar renders "[#####-----] 50.0%" with a 10-slot bar.
func progressBar(progress float64) string {
	filled := int(progress / 10)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", 10-filled)
	return fmt.Sprintf("[%s] %.1f%%", bar, progress)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func printTask(task *types.Task) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %s\n", bold(task.ID), task.Title)
	fmt.Printf("  status:     %s\n", statusLabel(task.Status))
	fmt.Printf("  progress:   %s\n", progressBar(task.Progress))
	fmt.Printf("  importance: %s\n", task.Importance)
	if task.EndDate != nil {
		fmt.Printf("  due:        %s\n", formatDate(task.EndDate))
	}
	if task.Assignee != "" {
		fmt.Printf("  assignee:   %s\n", task.Assignee)
	}
	if len(task.Tags) > 0 {
		fmt.Printf("  tags:       %s\n", strings.Join(task.Tags, ", "))
	}
	if task.Archived {
		fmt.Printf("  archived:   yes\n")
	}
	if task.Description != "" {
		fmt.Printf("  %s\n", task.Description)
	}
	for _, item := range task.Checklist {
		mark := "[ ]"
		if item.Completed {
			mark = color.GreenString("[x]")
		}
		fmt.Printf("  %s %s  %s\n", mark, item.ID, item.Text)
	}
}

func printTaskLine(task *types.Task) {
	archived := ""
	if task.Archived {
		archived = color.New(color.Faint).Sprint(" (archived)")
	}
	fmt.Printf("%s  %-12s %s  %s%s\n",
		task.ID, statusLabel(task.Status), progressBar(task.Progress), task.Title, archived)
}

func printIssueLine(issue *types.Issue) {
	fmt.Printf("%s  %s  %s\n", issue.ID, progressBar(issue.Progress), issue.Title)
}

func printProjectLine(project *types.Project) {
	fmt.Printf("%s  %s  %s\n", project.ID, progressBar(project.Progress), project.Name)
}
