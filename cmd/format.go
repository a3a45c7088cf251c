package main

import (
	"fmt"
	"strconv"
	"strings"

	"colorpick/internal/input"
	"colorpick/internal/screen"
)

// parsePoints reads "x,y[,x,y...]" into exactly n points.
func parsePoints(arg string, n int) ([]screen.Point, error) {
	fields := strings.Split(arg, ",")
	if len(fields) != n*2 {
		return nil, fmt.Errorf("expected %d comma-separated integers, got %d", n*2, len(fields))
	}

	pts := make([]screen.Point, n)
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate %q", f)
		}
		if i%2 == 0 {
			pts[i/2].X = int32(v)
		} else {
			pts[i/2].Y = int32(v)
		}
	}
	return pts, nil
}

func formatClick(n input.ClickNotification) string {
	color := "(color unavailable)"
	if n.RGB != nil {
		color = n.RGB.Hex()
	}
	return fmt.Sprintf("%-6s %d,%d %s", n.Button, n.X, n.Y, color)
}

// formatRegion renders one line per row of hex colors, preceded by a header.
func formatRegion(r screen.Rect, colors []screen.RGB) []string {
	lines := make([]string, 0, r.Height+1)
	lines = append(lines, fmt.Sprintf("%dx%d at %d,%d", r.Width, r.Height, r.X, r.Y))

	w := int(r.Width)
	for row := 0; row*w < len(colors); row++ {
		end := min((row+1)*w, len(colors))
		hexes := make([]string, 0, w)
		for _, c := range colors[row*w : end] {
			hexes = append(hexes, c.Hex())
		}
		lines = append(lines, strings.Join(hexes, " "))
	}
	return lines
}
