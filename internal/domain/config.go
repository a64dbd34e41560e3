package domain

// DefaultDimensions is the stored embedding width. Provider output is requested at this size.
const DefaultDimensions = 512

// DefaultKeyPrefix namespaces every key written to Redis/Valkey.
const DefaultKeyPrefix = "poemdex:"

// VectorConfig holds vectorization settings shared by the embedder chain and the index.
type VectorConfig struct {
	Model            string
	Dimensions       int
	DistanceMetric   string
	Algorithm        string
	QueryInstruction string
}

// DefaultVectorConfig returns settings for a 512-dim cosine HNSW index.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "text-embedding-3-small",
		Dimensions:     DefaultDimensions,
		DistanceMetric: "cosine",
		Algorithm:      "hnsw",
	}
}
