package main

import (
	"fmt"
	"io"
	"math"
	"sync"
	"tempest-share/domain"
	"tempest-share/domain/mimetypes"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// renderer prints statuses as lines. Progress is printed once per whole percent.
type renderer struct {
	w       io.Writer
	colours bool
	prefix  string
	mu      *sync.Mutex
	last    domain.Status
}

func newRenderer(w io.Writer, colours bool) *renderer {
	return &renderer{w: w, colours: colours, mu: &sync.Mutex{}}
}

// prefixed returns a renderer writing to the same output with a tag in front of each line.
func (r *renderer) prefixed(prefix string) *renderer {
	return &renderer{w: r.w, colours: r.colours, prefix: prefix, mu: r.mu}
}

func (r *renderer) status(s domain.Status) {
	if s.Mode == r.last.Mode && math.Floor(s.Progress) == math.Floor(r.last.Progress) && s.Message == r.last.Message {
		return
	}
	r.last = s
	r.line(r.paint(s, describe(s)))
}

func (r *renderer) line(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prefix != "" {
		text = fmt.Sprintf("[%s] %s", r.prefix, text)
	}
	_, _ = fmt.Fprintln(r.w, text)
}

func (r *renderer) success(text string) string {
	return lo.Ternary(r.colours, color.Green.Render(text), text)
}

func (r *renderer) paint(s domain.Status, text string) string {
	if !r.colours {
		return text
	}
	switch {
	case s.Mode == domain.ModeError:
		return color.New(color.FgRed, color.OpBold).Render(text)
	case s.Mode == domain.ModeIdle && s.Message != "":
		return color.Yellow.Render(text)
	case s.Mode.Complete():
		return color.Green.Render(text)
	case s.Mode == domain.ModeSharingSending || s.Mode == domain.ModeReceivingInProgress:
		return color.Cyan.Render(text)
	default:
		return text
	}
}

// summary prints what was received as a table.
func (r *renderer) summary(file domain.SharedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := tablewriter.NewWriter(r.w)
	table.SetHeader([]string{"File", "Size", "Type", "Saved as"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.Append([]string{file.FileName, domain.FormatFileSize(file.FileSize), string(mimetypes.Normalize(file.FileType)), string(file.Handle)})
	table.Render()
}

func describe(s domain.Status) string {
	switch s.Mode {
	case domain.ModeIdle:
		return lo.Ternary(s.Message != "", s.Message, "Idle")
	case domain.ModeError:
		return "Error: " + s.Message
	case domain.ModeSharingWaiting:
		return fmt.Sprintf("Waiting for the receiver, code %s", s.Code)
	case domain.ModeSharingSending:
		return fmt.Sprintf("Sending... %.0f%%", s.Progress)
	case domain.ModeSharingComplete:
		return "File sent"
	case domain.ModeReceivingConnecting:
		return "Connecting..."
	case domain.ModeReceivingInProgress:
		return fmt.Sprintf("Receiving... %.0f%%", s.Progress)
	case domain.ModeReceivingComplete:
		return "File received"
	default:
		return string(s.Mode)
	}
}
