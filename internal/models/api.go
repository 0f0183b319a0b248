package models

// SearchRequest is the request for POST /search
type SearchRequest struct {
	Query           string   `json:"query" validate:"required"`
	TopK            int      `json:"top_k" validate:"min=1,max=50"`
	Books           []string `json:"books,omitempty"`
	UseReranker     *bool    `json:"use_reranker,omitempty"`
	RetrievalFactor *float64 `json:"retrieval_factor,omitempty"`
}

// SearchResponse is the response for POST /search
type SearchResponse struct {
	Query   string               `json:"query"`
	Results []RetrievalCandidate `json:"results"`
}

// AskRequest is the request for POST /ask
type AskRequest struct {
	Query           string   `json:"query" validate:"required"`
	TopK            int      `json:"top_k" validate:"min=1,max=50"`
	Books           []string `json:"books,omitempty"`
	UseReranker     *bool    `json:"use_reranker,omitempty"`
	RetrievalFactor *float64 `json:"retrieval_factor,omitempty"`
}

// AskResponse is the response for POST /ask
type AskResponse struct {
	Query   string               `json:"query"`
	Results []RetrievalCandidate `json:"results"`
	Answer  string               `json:"answer,omitempty"`
}
