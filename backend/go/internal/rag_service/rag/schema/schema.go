package schema

// Page is the text layer of one PDF page. Number starts at 1.
type Page struct {
	Number int
	Text   string
}

// ChunkMetadata is the record attached to every chunk in the vector store.
// It is what folder filtering, deletion and source display are keyed on.
type ChunkMetadata struct {
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	FolderID      string `json:"folder_id"`
	PageNumber    int    `json:"page_number"`
	ChunkIndex    int    `json:"chunk_index"`
}

// Chunk is the atomic unit stored in the vector index.
type Chunk struct {
	// ID is generated per chunk and is the vector store primary key.
	ID string

	// Text is a substring of a single page.
	Text string

	// PageNumber is the page the text was cut from.
	PageNumber int

	// Index is the position of the chunk within its document, in emission order.
	Index int

	// Metadata is filled in by the indexing pipeline before the chunk is stored.
	Metadata ChunkMetadata
}

// Source is one retrieval hit, ready to be shown to a user or fed to a model.
type Source struct {
	DocumentID    string  `json:"-"`
	DocumentTitle string  `json:"document_title"`
	PageNumber    int     `json:"page_number"`
	Snippet       string  `json:"snippet"`
	Score         float64 `json:"score"`
}
