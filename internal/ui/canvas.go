package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/cellbuf"
)

// Canvas composes lipgloss-rendered blocks into a cell buffer so overlays
// and toasts can be drawn on top of the base frame.
type Canvas struct {
	screen *cellbuf.Screen
	writer *cellbuf.ScreenWriter
	width  int
	height int
}

func NewCanvas(width, height int) *Canvas {
	width = max(width, 1)
	height = max(height, 1)
	screen := cellbuf.NewScreen(io.Discard, width, height, &cellbuf.ScreenOptions{})
	return &Canvas{
		screen: screen,
		writer: cellbuf.NewScreenWriter(screen),
		width:  width,
		height: height,
	}
}

// DrawStringAt writes block with its top-left corner at x,y.
func (c *Canvas) DrawStringAt(x, y int, block string) {
	if block == "" {
		return
	}
	c.drawLines(x, y, splitLines(block))
}

// Center draws block in the middle of the rows between top and
// height-bottom.
func (c *Canvas) Center(block string, top, bottom int) {
	lines := splitLines(block)
	if len(lines) == 0 {
		return
	}
	w, h := min(maxLineWidth(lines), c.width), len(lines)
	usable := max(c.height-top-bottom, h)
	y := max(top+(usable-h)/2, 0)
	x := max((c.width-w)/2, 0)
	c.drawLines(x, y, lines)
}

// BottomRight anchors block to the bottom-right corner, above the bottom
// margin.
func (c *Canvas) BottomRight(block string, margin, bottom int) {
	lines := splitLines(block)
	if len(lines) == 0 {
		return
	}
	x := max(c.width-maxLineWidth(lines)-margin, 0)
	y := max(c.height-len(lines)-bottom, 0)
	c.drawLines(x, y, lines)
}

func (c *Canvas) drawLines(x, y int, lines []string) {
	x, y = max(x, 0), max(y, 0)
	for i, line := range lines {
		row := y + i
		if row >= c.height {
			break
		}
		if line == "" {
			continue
		}
		c.writer.PrintCropAt(x, row, line, "")
	}
}

// Render returns the composed frame.
func (c *Canvas) Render() string {
	raw := cellbuf.Render(c.screen)
	_ = c.screen.Close()
	return strings.ReplaceAll(raw, "\r\n", "\n")
}

func splitLines(block string) []string {
	if block == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
}

func maxLineWidth(lines []string) int {
	w := 0
	for _, line := range lines {
		w = max(w, lipgloss.Width(line))
	}
	return w
}
