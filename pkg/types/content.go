package types

import "encoding/json"

// ContentType classifies the raw form of a submitted item.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentURL      ContentType = "url"
	ContentImage    ContentType = "image"
	ContentDocument ContentType = "document"
)

// Valid reports whether ct is one of the known content types.
func (ct ContentType) Valid() bool {
	switch ct {
	case ContentText, ContentURL, ContentImage, ContentDocument:
		return true
	}
	return false
}

// ParseStatus is the processing state of a content item.
type ParseStatus string

const (
	StatusPending    ParseStatus = "pending"
	StatusProcessing ParseStatus = "processing"
	StatusComplete   ParseStatus = "complete"
	StatusError      ParseStatus = "error"
)

// ActionKind labels an entry in the append-only activity trail.
type ActionKind string

const (
	ActionStore        ActionKind = "store_content"
	ActionSearch       ActionKind = "search"
	ActionSearchResult ActionKind = "search_result"
	ActionUpdate       ActionKind = "update_content"
	ActionDelete       ActionKind = "delete_content"
)

// Blob is an opaque serialized value stored verbatim. The store never
// interprets it; collaborators decode it through the typed views below.
type Blob string

// MetadataView exposes the metadata fields collaborators actually use.
// Unknown keys survive in the blob untouched.
type MetadataView struct {
	Title         string `json:"title,omitempty"`
	URL           string `json:"url,omitempty"`
	ContentLength int    `json:"content_length,omitempty"`
	Note          string `json:"note,omitempty"`
}

// DecodeMetadata parses a metadata blob into its typed view. An empty blob
// decodes to the zero view.
func DecodeMetadata(b Blob) (MetadataView, error) {
	var v MetadataView
	if b == "" {
		return v, nil
	}
	err := json.Unmarshal([]byte(b), &v)
	return v, err
}

// Encode serializes the view back to a blob.
func (v MetadataView) Encode() (Blob, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Blob(data), nil
}

// TaxonomyView is the typed shape of classifier output.
type TaxonomyView struct {
	DeweyDecimal string   `json:"dewey_decimal,omitempty"`
	Subjects     []string `json:"subjects,omitempty"`
	Confidence   float64  `json:"confidence"`
	Method       string   `json:"classification_method"`
}

// DecodeTaxonomy parses a taxonomy blob into its typed view.
func DecodeTaxonomy(b Blob) (TaxonomyView, error) {
	var v TaxonomyView
	if b == "" {
		return v, nil
	}
	err := json.Unmarshal([]byte(b), &v)
	return v, err
}

// Encode serializes the view back to a blob.
func (v TaxonomyView) Encode() (Blob, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Blob(data), nil
}
