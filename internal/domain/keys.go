package domain

// KeyPrefix is the default namespace for every key veccoll writes to the store.
const KeyPrefix = "veccoll:"

// Collection metadata keys shared between configuration, ingestion and reporting.
const (
	MetaSource              = "source"
	MetaProvider            = "provider"
	MetaEmbeddingModel      = "embedding_model"
	MetaVariant             = "variant"
	MetaDimension           = "dimension"
	MetaEmbeddingDimensions = "embedding_dimensions"
)
