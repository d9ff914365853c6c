package rest

import (
	"github.com/dfryer1193/mailmanifest/api"
	catalogapp "github.com/dfryer1193/mailmanifest/catalog/application"
	catalog "github.com/dfryer1193/mailmanifest/catalog/domain"
)

func toAPIImage(v *catalog.ImageView) api.Image {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return api.Image{
		ID:          v.ID,
		Location:    v.Location,
		Description: v.Description,
		Tags:        tags,
		URL:         v.URL,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func toAPIImages(views []catalog.ImageView) []api.Image {
	out := make([]api.Image, 0, len(views))
	for i := range views {
		out = append(out, toAPIImage(&views[i]))
	}
	return out
}

func toAPIManifest(m catalogapp.Manifest) api.ManifestResponse {
	return api.ManifestResponse{
		Featured: toAPIImages(m.Featured),
		Doors:    toAPIImages(m.Doors),
		Openers:  toAPIImages(m.Openers),
		Gates:    toAPIImages(m.Gates),
		Custom:   toAPIImages(m.Custom),
	}
}
