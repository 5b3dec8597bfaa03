package main

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chat-console/domain"
	"chat-console/view"
)

// Terminal back-end for the view package: node trees become colored
// lines, the roster and group lists become tables.

func printTimeline(w io.Writer, nodes []*view.Node) {
	for _, node := range nodes {
		fmt.Fprintln(w, formatMessage(node))
	}
}

func formatMessage(node *view.Node) string {
	line := ""
	if sender := node.Find(view.KindSender); sender != nil {
		name := sender.Text
		if node.Attrs["class"] == "mine" {
			name = color.Cyan.Render(name)
		} else {
			name = color.Green.Render(name)
		}
		line += fmt.Sprintf("[%s] %s", node.Attrs["msg-id"], name)
	}
	if reply := node.Find(view.KindReply); reply != nil {
		line += color.Gray.Render(fmt.Sprintf(" (re %s: %s)", reply.Attrs["sender"], reply.Text))
	}
	if content := node.Find(view.KindContent); content != nil {
		line += " " + content.Text
	}
	if file := node.Find(view.KindFile); file != nil {
		line += color.Yellow.Render(fmt.Sprintf(" <%s: %s>", file.Attrs["class"], file.Text))
	}
	for _, reaction := range node.FindAll(view.KindReaction) {
		tag := fmt.Sprintf(" %s%s", reaction.Attrs["emoji"], reaction.Attrs["count"])
		if reaction.Attrs["reacted"] == "true" {
			tag = color.Bold.Render(tag)
		}
		line += tag
	}
	if ticks := node.Find(view.KindTicks); ticks != nil {
		switch ticks.Attrs["state"] {
		case view.TickRead:
			line += color.Cyan.Render(" ✓✓")
		case view.TickSent:
			line += " ✓"
		}
	}
	if ts := node.Find(view.KindTimestamp); ts != nil {
		line += color.Gray.Render("  " + ts.Text)
	}
	return line
}

func printRoster(w io.Writer, entries []domain.RosterEntry, badges map[domain.ConversationID]int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"User", "Status", "Unread"})
	for _, item := range view.RenderRoster(entries, badges).FindAll(view.KindRosterItem) {
		status := color.Gray.Render("offline")
		if item.Attrs["online"] == "true" {
			status = color.Green.Render("online")
		}
		table.Append([]string{item.Text, status, badgeCell(item)})
	}
	table.Render()
}

func printGroups(w io.Writer, groups []domain.GroupSummary, badges map[domain.ConversationID]int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Id", "Name", "Unread"})
	for _, item := range view.RenderGroups(groups, badges).FindAll(view.KindGroupItem) {
		table.Append([]string{"group-" + item.Attrs["group-id"], item.Text, badgeCell(item)})
	}
	table.Render()
}

func badgeCell(item *view.Node) string {
	if badge := item.Find(view.KindBadge); badge != nil {
		return color.Red.Render(badge.Text)
	}
	return ""
}
