package renderers

import (
	"context"
	"fmt"

	"github.com/loopin/signage-agent/internal/display"
	"github.com/loopin/signage-agent/internal/models"
)

// TextRenderer presents a scrolling ticker.
type TextRenderer struct{}

// Render builds the ticker frame.
func (r *TextRenderer) Render(ctx context.Context, slide models.Slide) (display.Frame, error) {
	if slide.Text == "" {
		return display.Frame{}, fmt.Errorf("text slide %s has no text", slide.ID)
	}

	return display.Frame{
		Kind:        display.FrameText,
		Text:        slide.Text,
		TextColor:   slide.TextColor,
		Background:  slide.Background,
		ScrollSpeed: slide.ScrollSpeed,
		Duration:    slide.Duration,
	}, nil
}

// HTMLRenderer presents operator-authored markup as-is.
type HTMLRenderer struct{}

// Render builds the html frame.
func (r *HTMLRenderer) Render(ctx context.Context, slide models.Slide) (display.Frame, error) {
	if slide.HTML == "" {
		return display.Frame{}, fmt.Errorf("html slide %s has no markup", slide.ID)
	}

	return display.Frame{
		Kind:     display.FrameHTML,
		HTML:     slide.HTML,
		Duration: slide.Duration,
	}, nil
}
