package checks

import (
	"context"
	"fmt"

	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/core"
)

const (
	categoryMissingImage = "missing_image"
	categoryBrokenImage  = "broken_image"
	categorySmallImage   = "small_image"
)

// ImageProber answers image questions, caching the answers
type ImageProber interface {
	Exists(ctx context.Context, url string) (bool, error)
	Dimensions(ctx context.Context, url string) (int, int, error)
	Flush(ctx context.Context) error
}

// Images verifies products have images, that every image can be fetched and
// that it is wide enough. Sizes already known to the media library are used
// without downloading the file.
type Images struct {
	prober  ImageProber
	indexed *core.Snapshot
	media   map[int]core.Media
}

// NewImages creates the image check
func NewImages(prober ImageProber) *Images {
	return &Images{prober: prober}
}

func (c *Images) Name() string {
	return "image"
}

func (c *Images) mediaIndex(snap *core.Snapshot) map[int]core.Media {
	if c.indexed != snap {
		c.media = snap.MediaByID()
		c.indexed = snap
	}
	return c.media
}

func (c *Images) CheckProduct(ctx context.Context, rc *audit.RunContext, p *core.Product) error {
	if p.Status == "trash" {
		return nil
	}
	if len(p.Images) == 0 {
		rc.Violation(categoryMissingImage, fmt.Sprintf("%s has no image", describeProduct(p)), true)
	}

	images := append([]core.Image(nil), p.Images...)
	for _, v := range rc.Snapshot.VariationsOf(p.ID) {
		if v.Image != nil && v.Image.Src != "" {
			images = append(images, *v.Image)
		}
	}

	media := c.mediaIndex(rc.Snapshot)
	seen := make(map[string]bool, len(images))
	for _, img := range images {
		if img.Src == "" || seen[img.Src] {
			continue
		}
		seen[img.Src] = true

		exists, err := c.prober.Exists(ctx, img.Src)
		if err != nil {
			return err
		}
		if !exists {
			rc.Violation(categoryBrokenImage, fmt.Sprintf("%s image %s cannot be fetched", describeProduct(p), img.Src), true)
			continue
		}

		width := 0
		if m, ok := media[img.ID]; ok {
			width = m.MediaDetails.Width
		}
		if width == 0 {
			if width, _, err = c.prober.Dimensions(ctx, img.Src); err != nil {
				return err
			}
		}
		if width < rc.Checks.MinImageWidth {
			rc.Violation(categorySmallImage,
				fmt.Sprintf("%s image %s is %dpx wide, minimum is %dpx", describeProduct(p), img.Src, width, rc.Checks.MinImageWidth), true)
		}
	}
	return nil
}

// Finish persists the probe caches
func (c *Images) Finish(ctx context.Context) error {
	return c.prober.Flush(ctx)
}
