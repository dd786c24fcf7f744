package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"sync"

	"trainticket/internal/utils"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"golang.org/x/sync/errgroup"
)

// Captures render at a fixed reference width so layout is deterministic
// regardless of what the viewer's screen looks like.
const (
	ReferenceWidth = 1600
	jpegQuality    = 100
)

// SummaryRegionClass marks the ticket-summary regions included in the
// proof-of-booking document.
const SummaryRegionClass = "comments-result"

// HiddenBlock is content kept out of the normal view but revealed for the
// duration of a capture.
type HiddenBlock struct {
	mu      sync.Mutex
	visible bool
}

// Reveal makes the block visible and returns the restore function.
func (b *HiddenBlock) Reveal() func() {
	b.mu.Lock()
	prev := b.visible
	b.visible = true
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.visible = prev
		b.mu.Unlock()
	}
}

func (b *HiddenBlock) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Region is one on-screen area that can be rasterized. Render is called with
// the reference width; when the region owns a HiddenBlock it is revealed
// before Render runs and restored afterwards.
type Region struct {
	Class  string
	Hidden *HiddenBlock
	Render func(width int) (image.Image, error)
}

// CaptureService keeps the mounted regions in document order and snapshots
// them into JPEG data URLs.
type CaptureService struct {
	RequestID string

	mu      sync.Mutex
	regions []*Region
}

func NewCaptureService() *CaptureService {
	return &CaptureService{}
}

// Mount appends a region and returns its unmount function.
func (s *CaptureService) Mount(r *Region) func() {
	s.mu.Lock()
	s.regions = append(s.regions, r)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, reg := range s.regions {
			if reg == r {
				s.regions = append(s.regions[:i], s.regions[i+1:]...)
				return
			}
		}
	}
}

// CaptureRegions rasterizes every mounted region carrying the class marker.
// Captures run concurrently; results come back in mount order. No matching
// regions is not an error, just an empty result.
func (s *CaptureService) CaptureRegions(ctx context.Context, class string) ([]string, error) {
	s.mu.Lock()
	var matched []*Region
	for _, r := range s.regions {
		if r.Class == class {
			matched = append(matched, r)
		}
	}
	s.mu.Unlock()

	if len(matched) == 0 {
		return []string{}, nil
	}

	out := make([]string, len(matched))
	g, ctx := errgroup.WithContext(ctx)
	for i, r := range matched {
		i, r := i, r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			encoded, err := captureRegion(r)
			if err != nil {
				return fmt.Errorf("capture region %d: %w", i, err)
			}
			out[i] = encoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	utils.LogEvent(s.RequestID, "capture", "regions", fmt.Sprintf("class=%s count=%d", class, len(out)))
	return out, nil
}

func captureRegion(r *Region) (string, error) {
	if r.Hidden != nil {
		restore := r.Hidden.Reveal()
		defer restore()
	}
	img, err := r.Render(ReferenceWidth)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// TextRenderer renders lines of text on a white canvas. hiddenLines are only
// drawn while the block is revealed, mirroring content that exists solely
// for the captured artifact.
func TextRenderer(lines []string, hidden *HiddenBlock, hiddenLines []string) func(width int) (image.Image, error) {
	return func(width int) (image.Image, error) {
		all := lines
		if hidden != nil && hidden.Visible() {
			all = append(append([]string{}, lines...), hiddenLines...)
		}
		const lineHeight = 24
		height := lineHeight*(len(all)+1) + lineHeight
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
		}
		y := lineHeight
		for _, line := range all {
			d.Dot = fixed.P(16, y)
			d.DrawString(line)
			y += lineHeight
		}
		return img, nil
	}
}
