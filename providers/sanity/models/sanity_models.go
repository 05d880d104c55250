package models

// SanityUploadResponse is the body returned by the image asset endpoint.
type SanityUploadResponse struct {
	Document struct {
		ID   string `json:"_id"`
		Type string `json:"_type"`
		URL  string `json:"url"`
	} `json:"document"`
}

type SanityMutationRequest struct {
	Mutations []Mutation `json:"mutations"`
}

type Mutation struct {
	Create *Document `json:"create,omitempty"`
}

type Document struct {
	Type  string `json:"_type"`
	Title string `json:"title"`
	Image Image  `json:"image"`
}

type Image struct {
	Type  string    `json:"_type"`
	Asset Reference `json:"asset"`
}

type Reference struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}
