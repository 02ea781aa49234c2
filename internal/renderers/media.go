package renderers

import (
	"context"
	"fmt"

	"github.com/loopin/signage-agent/internal/display"
	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/pkg/assetcache"
)

// ImageRenderer presents a still image for the slide's duration.
type ImageRenderer struct {
	cache *assetcache.AssetCache
}

// Render resolves the image through the cache, preferring a local handle.
func (r *ImageRenderer) Render(ctx context.Context, slide models.Slide) (display.Frame, error) {
	if slide.AssetURL == "" {
		return display.Frame{}, fmt.Errorf("image slide %s has no asset URL", slide.ID)
	}

	return display.Frame{
		Kind:     display.FrameImage,
		Source:   r.cache.Resolve(slide.AssetURL),
		Duration: slide.Duration,
	}, nil
}

// VideoRenderer presents a video that plays to its natural end; the surface
// reports completion through its Ended channel.
type VideoRenderer struct {
	cache *assetcache.AssetCache
}

// Render resolves the video through the cache, preferring a local handle.
func (r *VideoRenderer) Render(ctx context.Context, slide models.Slide) (display.Frame, error) {
	if slide.AssetURL == "" {
		return display.Frame{}, fmt.Errorf("video slide %s has no asset URL", slide.ID)
	}

	return display.Frame{
		Kind:     display.FrameVideo,
		Source:   r.cache.Resolve(slide.AssetURL),
		Duration: slide.Duration,
	}, nil
}
