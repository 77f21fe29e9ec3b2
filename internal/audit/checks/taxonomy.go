package checks

import (
	"context"
	"fmt"

	"github.com/mikey/catalog-auditor/internal/audit"
)

const (
	categoryUnusedTag           = "unused_tag"
	categoryEmptyCategory       = "empty_category"
	categoryUnusedAttributeTerm = "unused_attribute_term"
	categoryInactivePlugin      = "inactive_plugin"

	defaultCategorySlug = "uncategorized"
)

// Taxonomy reports unused tags, empty categories, unused attribute terms and
// inactive plugins
type Taxonomy struct{}

// NewTaxonomy creates the taxonomy check
func NewTaxonomy() *Taxonomy {
	return &Taxonomy{}
}

func (c *Taxonomy) Name() string {
	return "taxonomy"
}

func (c *Taxonomy) CheckCatalog(ctx context.Context, rc *audit.RunContext) error {
	snap := rc.Snapshot

	for _, t := range snap.Tags {
		if t.Count == 0 {
			rc.Violation(categoryUnusedTag, fmt.Sprintf("Tag %q (%d) is not used by any product", t.Name, t.ID), false)
		}
	}
	for _, t := range snap.Categories {
		if t.Count == 0 && t.Slug != defaultCategorySlug {
			rc.Violation(categoryEmptyCategory, fmt.Sprintf("Category %q (%d) has no products", t.Name, t.ID), false)
		}
	}
	for _, a := range snap.Attributes {
		for _, t := range snap.AttributeTerms[a.ID] {
			if t.Count == 0 {
				rc.Violation(categoryUnusedAttributeTerm,
					fmt.Sprintf("Attribute %s term %q (%d) is not used", a.Name, t.Name, t.ID), false)
			}
		}
	}
	for _, p := range snap.Plugins {
		if p.Status == "inactive" {
			rc.Violation(categoryInactivePlugin, fmt.Sprintf("Plugin %s (%s) is installed but inactive", p.Name, p.Plugin), true)
		}
	}
	return nil
}
