package preview

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	maxTitleLength       = 140
	maxDescriptionLength = 280

	previewPrefix = "Preview: "
	ellipsis      = "…"

	// Newline marker used when a post body is squeezed onto one line.
	returnSymbol = " ⏎ "
)

// FormatPreview renders metadata as a single display line. Without a title
// no line is produced at all.
func FormatPreview(meta Metadata) string {
	if meta.Title == "" {
		return ""
	}

	msg := previewPrefix
	if meta.Insecure {
		msg += "⚠️ " + Bold("Insecure") + " "
	}
	msg += Bold(Truncate(meta.Title, maxTitleLength))
	if meta.Description != "" {
		msg += " " + Truncate(meta.Description, maxDescriptionLength)
	}
	if meta.PublishedAt != nil {
		msg += fmt.Sprintf(" (%s)", HumanizeTime(*meta.PublishedAt))
	}

	return msg
}

// Bold wraps text in the rich-text bold markers understood by the relays.
func Bold(s string) string {
	return "**" + s + "**"
}

// Truncate cuts text to at most max runes, appending an ellipsis when
// anything was dropped.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsis
}

// HumanizeTime renders a relative-time phrase. The timestamp is first
// shifted by its own UTC offset and reinterpreted as UTC, so all inputs are
// humanized in one consistent frame regardless of source timezone.
func HumanizeTime(t time.Time) string {
	return humanize.Time(naiveUTC(t))
}

func naiveUTC(t time.Time) time.Time {
	_, offset := t.Zone()
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return wall.Add(time.Duration(offset) * time.Second)
}

// HumanizeCount abbreviates large counts to K/M/B at fixed thresholds.
func HumanizeCount(count int64) string {
	c := float64(count)
	switch {
	case c > 1e10:
		return fmt.Sprintf("%.0fB", c/1e9)
	case c > 1e9:
		return fmt.Sprintf("%.1fB", c/1e9)
	case c > 1e7:
		return fmt.Sprintf("%.0fM", c/1e6)
	case c > 1e6:
		return fmt.Sprintf("%.1fM", c/1e6)
	case c > 1e4:
		return fmt.Sprintf("%.0fK", c/1e3)
	case c > 1e3:
		return fmt.Sprintf("%.1fK", c/1e3)
	default:
		return fmt.Sprintf("%d", count)
	}
}

// HumanizeViews renders a view count with thousands grouping.
func HumanizeViews(views int64) string {
	return humanize.Comma(views)
}

// FormatRating renders a like/dislike pair as a percentage, with more
// precision near the extremes where it matters.
func FormatRating(likes, dislikes int64) string {
	if likes+dislikes == 0 {
		return "n/a"
	}
	if dislikes == 0 {
		return "100%"
	}
	if likes == 0 {
		return "0%"
	}
	ratio := float64(likes) / float64(likes+dislikes) * 100
	if ratio < 1 {
		return fmt.Sprintf("%.2f%%", ratio)
	}
	if ratio > 99 || ratio < 10 {
		return fmt.Sprintf("%.1f%%", ratio)
	}
	return fmt.Sprintf("%.0f%%", ratio)
}

// FormatAuthor renders a post author as a bold name, a verification mark
// when earned, and the handle.
func FormatAuthor(name, username string, verified bool) string {
	if verified {
		return Bold(name) + "✔️ (@" + username + ")"
	}
	return Bold(name) + " (@" + username + ")"
}
