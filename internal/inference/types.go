package inference

// Model identifiers the sidecar is expected to serve.
const (
	SemanticModel   = "openai/clip-vit-base-patch32"
	PerceptualModel = "lpips-vgg"
)

type EmbedImagesRequest struct {
	Model  string   `json:"model"`
	Images []string `json:"images"`
}

type EmbedImagesResponse struct {
	Success    bool        `json:"success"`
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

type PerceptualDistanceRequest struct {
	Model     string `json:"model"`
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
}

type PerceptualDistanceResponse struct {
	Success  bool    `json:"success"`
	Distance float64 `json:"distance"`
	Error    string  `json:"error,omitempty"`
}
