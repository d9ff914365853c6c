package application

import (
	"github.com/dfryer1193/mailmanifest/catalog/domain"
)

// Manifest is the categorized view of the catalog served to the website.
// A record may appear in several buckets.
type Manifest struct {
	Featured []domain.ImageView
	Doors    []domain.ImageView
	Openers  []domain.ImageView
	Gates    []domain.ImageView
	Custom   []domain.ImageView
}

type bucketRule struct {
	tags   []string
	bucket func(m *Manifest) *[]domain.ImageView
}

var manifestRules = []bucketRule{
	{tags: []string{"featured"}, bucket: func(m *Manifest) *[]domain.ImageView { return &m.Featured }},
	{tags: []string{"door", "doors"}, bucket: func(m *Manifest) *[]domain.ImageView { return &m.Doors }},
	{tags: []string{"opener", "openers"}, bucket: func(m *Manifest) *[]domain.ImageView { return &m.Openers }},
	{tags: []string{"gate", "gates"}, bucket: func(m *Manifest) *[]domain.ImageView { return &m.Gates }},
	{tags: []string{"custom"}, bucket: func(m *Manifest) *[]domain.ImageView { return &m.Custom }},
}

// ProjectManifest classifies views into buckets by tag, keeping input order within each bucket.
// Every bucket is present and non-nil even when empty.
func ProjectManifest(views []domain.ImageView) Manifest {
	m := Manifest{
		Featured: []domain.ImageView{},
		Doors:    []domain.ImageView{},
		Openers:  []domain.ImageView{},
		Gates:    []domain.ImageView{},
		Custom:   []domain.ImageView{},
	}

	for _, v := range views {
		if v.Image == nil {
			continue
		}
		// classification is case and whitespace insensitive
		tags := NormalizeTags(v.Tags)
		for _, rule := range manifestRules {
			if hasAnyTag(tags, rule.tags...) {
				b := rule.bucket(&m)
				*b = append(*b, v)
			}
		}
	}

	return m
}
