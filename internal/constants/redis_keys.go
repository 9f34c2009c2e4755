package constants

const (
	// QueryVectorCachePrefix keys cached query embeddings. The suffix is a
	// content hash of the canonical query text.
	QueryVectorCachePrefix = "query_vector:"
)
