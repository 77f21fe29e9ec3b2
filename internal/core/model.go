package core

import (
	"encoding/json"
	"strings"
	"time"
)

// apiTimeLayout is the timestamp layout used by the catalog API (site local time, no zone)
const apiTimeLayout = "2006-01-02T15:04:05"

// APITime is a timestamp as emitted by the catalog API
type APITime struct {
	time.Time
}

// UnmarshalJSON accepts the zone-less API layout, RFC 3339, null and the empty string
func (t *APITime) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(apiTimeLayout, *raw)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, *raw)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes the API layout
func (t APITime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(t.Format(apiTimeLayout))
}

// TermRef references a tag or category on a product
type TermRef struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// Image is an image attached to a product or variation
type Image struct {
	ID   int    `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name,omitempty"`
}

// MetaEntry is one custom field of a product
type MetaEntry struct {
	ID    int       `json:"id"`
	Key   string    `json:"key"`
	Value MetaValue `json:"value"`
}

// Product represents a catalog product
type Product struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Slug         string      `json:"slug"`
	Permalink    string      `json:"permalink"`
	Type         string      `json:"type"`
	Status       string      `json:"status"`
	SKU          string      `json:"sku"`
	RegularPrice string      `json:"regular_price"`
	SalePrice    string      `json:"sale_price"`
	StockStatus  string      `json:"stock_status"`
	DateCreated  APITime     `json:"date_created"`
	Tags         []TermRef   `json:"tags"`
	Categories   []TermRef   `json:"categories"`
	Images       []Image     `json:"images"`
	Variations   []int       `json:"variations"`
	MetaData     []MetaEntry `json:"meta_data"`
}

// IsVariable reports whether the product sells through variations
func (p *Product) IsVariable() bool {
	return p.Type == "variable"
}

// Meta returns the value of the first meta entry with the given key
func (p *Product) Meta(key string) MetaValue {
	for _, m := range p.MetaData {
		if m.Key == key {
			return m.Value
		}
	}
	return MetaValue{}
}

// HasTag reports whether the product carries a tag with the given slug or name
func (p *Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t.Slug, tag) || strings.EqualFold(t.Name, tag) {
			return true
		}
	}
	return false
}

// InCategory reports whether the product belongs to a category with the given slug
func (p *Product) InCategory(slug string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c.Slug, slug) {
			return true
		}
	}
	return false
}

// Variation is a sellable attribute combination of a variable product
type Variation struct {
	ID           int     `json:"id"`
	SKU          string  `json:"sku"`
	Status       string  `json:"status"`
	RegularPrice string  `json:"regular_price"`
	SalePrice    string  `json:"sale_price"`
	StockStatus  string  `json:"stock_status"`
	DateCreated  APITime `json:"date_created"`
	Image        *Image  `json:"image"`
}

// MediaDetails holds the measured size of a media library item
type MediaDetails struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Media is an item of the media library
type Media struct {
	ID           int          `json:"id"`
	SourceURL    string       `json:"source_url"`
	MimeType     string       `json:"mime_type"`
	MediaDetails MediaDetails `json:"media_details"`
	Date         APITime      `json:"date"`
}

// LineItem is one product line of an order
type LineItem struct {
	ID          int    `json:"id"`
	ProductID   int    `json:"product_id"`
	VariationID int    `json:"variation_id"`
	Quantity    int    `json:"quantity"`
	SKU         string `json:"sku"`
}

// Order is a customer order
type Order struct {
	ID          int        `json:"id"`
	Status      string     `json:"status"`
	DateCreated APITime    `json:"date_created"`
	LineItems   []LineItem `json:"line_items"`
}

// Term is a taxonomy term (tag, category or attribute term)
type Term struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Attribute is a global product attribute
type Attribute struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Plugin is an installed site plugin
type Plugin struct {
	Plugin  string `json:"plugin"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// PricedItem is anything carrying a regular and a sale price: a variation, or a
// simple product standing in for its own single variation
type PricedItem struct {
	ProductID    int
	VariationID  int
	SKU          string
	RegularPrice string
	SalePrice    string
}

// IsVariation reports whether the item is a variation rather than a simple product
func (i PricedItem) IsVariation() bool {
	return i.VariationID != 0
}

// Snapshot is the full catalog as fetched at the start of a run
type Snapshot struct {
	Products       []Product
	Variations     map[int][]Variation
	Media          []Media
	Orders         []Order
	Tags           []Term
	Categories     []Term
	Attributes     []Attribute
	AttributeTerms map[int][]Term
	Plugins        []Plugin
	FetchedAt      time.Time
}

// VariationsOf returns the variations fetched for a product
func (s *Snapshot) VariationsOf(productID int) []Variation {
	return s.Variations[productID]
}

// PricedItems returns the priced units of a product: its variations when it is
// variable, otherwise the product itself
func (s *Snapshot) PricedItems(p *Product) []PricedItem {
	if !p.IsVariable() {
		return []PricedItem{{
			ProductID:    p.ID,
			SKU:          p.SKU,
			RegularPrice: p.RegularPrice,
			SalePrice:    p.SalePrice,
		}}
	}
	variations := s.VariationsOf(p.ID)
	items := make([]PricedItem, 0, len(variations))
	for _, v := range variations {
		items = append(items, PricedItem{
			ProductID:    p.ID,
			VariationID:  v.ID,
			SKU:          v.SKU,
			RegularPrice: v.RegularPrice,
			SalePrice:    v.SalePrice,
		})
	}
	return items
}

// MediaByID indexes the media library by id
func (s *Snapshot) MediaByID() map[int]Media {
	index := make(map[int]Media, len(s.Media))
	for _, m := range s.Media {
		index[m.ID] = m
	}
	return index
}

// ProductPatch is a partial product update; nil fields are left untouched
type ProductPatch struct {
	Status       *string    `json:"status,omitempty"`
	RegularPrice *string    `json:"regular_price,omitempty"`
	SalePrice    *string    `json:"sale_price,omitempty"`
	Tags         *[]TermRef `json:"tags,omitempty"`
}

// VariationPatch is a partial variation update; nil fields are left untouched
type VariationPatch struct {
	RegularPrice *string `json:"regular_price,omitempty"`
	SalePrice    *string `json:"sale_price,omitempty"`
}

// CacheEntry is a cached lookup result
type CacheEntry struct {
	Key         string
	Value       string
	LastChecked time.Time
}

// TTL is a calendar expiry interval; the zero value never expires
type TTL struct {
	Months int
	Days   int
}

// IsZero reports whether entries governed by the TTL never expire
func (t TTL) IsZero() bool {
	return t.Months == 0 && t.Days == 0
}

// Expired reports whether an entry checked at checkedAt has expired by now,
// i.e. checkedAt + ttl < now
func (t TTL) Expired(checkedAt, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	return checkedAt.AddDate(0, t.Months, t.Days).Before(now)
}
