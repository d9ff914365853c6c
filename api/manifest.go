package api

type ManifestResponse struct {
	Featured []Image `json:"featured"`
	Doors    []Image `json:"doors"`
	Openers  []Image `json:"openers"`
	Gates    []Image `json:"gates"`
	Custom   []Image `json:"custom"`
}
