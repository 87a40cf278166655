package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"second-brain-client/internal/apiclient"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/service"
	"second-brain-client/pkg/readmodel"
)

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	boldRed   = color.New(color.FgRed, color.Bold).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
)

const timeLayout = "2006-01-02 15:04"

func printNotification(n entity.Notification) {
	switch n.Severity {
	case entity.SeveritySuccess:
		color.Green("✔ %s", n.Message)
	case entity.SeverityWarning:
		color.Yellow("! %s", n.Message)
	case entity.SeverityError:
		color.Red("✖ %s", n.Message)
	default:
		color.Cyan("i %s", n.Message)
	}
}

func printMessage(m entity.ChatMessage) {
	stamp := faint(m.Timestamp.Local().Format(timeLayout))
	switch m.Role {
	case entity.ChatRoleUser:
		fmt.Printf("%s %s %s\n", stamp, boldGreen("You:"), m.Content)
	case entity.ChatRoleError:
		fmt.Printf("%s %s %s\n", stamp, boldRed("Error:"), m.Content)
	default:
		fmt.Printf("%s %s %s\n", stamp, boldCyan("Assistant:"), m.Content)
		if len(m.Sources) > 0 {
			fmt.Printf("    %s %s\n", faint("sources:"), strings.Join(m.Sources, ", "))
		}
		if m.Confidence != nil {
			fmt.Printf("    %s %.0f%% (%s)\n", faint("confidence:"), *m.Confidence*100, readmodel.BandConfidence(*m.Confidence))
		}
	}
}

func printHistoryEntry(h entity.ConversationHistoryEntry) {
	role := boldCyan(string(h.Role))
	if h.Role == entity.ChatRoleUser {
		role = boldGreen(string(h.Role))
	}
	stamp := ""
	if t := h.ParsedTimestamp(); !t.IsZero() {
		stamp = t.Local().Format(timeLayout)
	}
	fmt.Printf("%s %s: %s\n", faint(stamp), role, h.Content)
}

func printMemoryGroups(groups []readmodel.MemoryGroup, now time.Time) {
	if len(groups) == 0 {
		fmt.Println(faint("No memories."))
		return
	}
	for _, g := range groups {
		fmt.Println(boldCyan(string(g.Category)))
		for _, m := range readmodel.Annotate(g.Memories, now) {
			printMemory(m)
		}
	}
}

func printMemory(m readmodel.AnnotatedMemory) {
	line := fmt.Sprintf("  %s = %s", m.Key, m.Value)
	if m.Description != "" {
		line += faint(" (" + m.Description + ")")
	}
	if m.EventTime != nil {
		line += " " + yellow("@ "+m.EventTime.Local().Format(timeLayout))
	}
	fmt.Printf("%s  [%s]\n", line, statusLabel(m.Status))
}

func statusLabel(s entity.MemoryStatus) string {
	switch s {
	case entity.MemoryStatusExpired:
		return boldRed(string(s))
	case entity.MemoryStatusSoon:
		return yellow(string(s))
	case entity.MemoryStatusCompleted:
		return faint(string(s))
	default:
		return string(s)
	}
}

func printFiles(files []readmodel.FileSummary) {
	if len(files) == 0 {
		fmt.Println(faint("No documents."))
		return
	}
	for _, f := range files {
		fmt.Printf("%-40s %-6s %10s  %3d chunk(s)  %s\n",
			f.FileName, f.FileType, readmodel.FormatFileSize(f.FileSize), f.Chunks,
			faint(f.IngestionTime.Local().Format(timeLayout)))
	}
}

func printUploadItem(item service.UploadItem) {
	switch item.Status {
	case service.UploadSuccess:
		chunks := 0
		if item.Result != nil {
			chunks = item.Result.Chunks
		}
		color.Green("✔ %s (%d chunks)", item.Name, chunks)
	case service.UploadError:
		color.Red("✖ %s", item.Name)
		if item.Failure != nil {
			printUploadFailure(item.Failure)
		}
	default:
		fmt.Printf("  %s [%s]\n", item.Name, item.Status)
	}
}

func printUploadFailure(f *apiclient.UploadFailure) {
	fmt.Printf("    %s\n", f.Message)
	if f.Detail != "" && f.Detail != f.Message {
		fmt.Printf("    %s\n", faint(f.Detail))
	}
	for _, s := range f.Suggestions {
		fmt.Printf("    - %s\n", s)
	}
}
