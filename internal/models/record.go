// Package models defines core data structures for document records and similarity results.
package models

// DocumentInfo identifies a vault document and its current version stamp.
// ModifiedAt is the file's mtime in unix nanoseconds; it is only ever compared
// for inequality, never ordered.
type DocumentInfo struct {
	Path       string `json:"path"`
	ModifiedAt int64  `json:"modified_at"`
}

// Neighbor is a similar document and its cosine similarity score in [0,1].
type Neighbor struct {
	Path       string  `json:"path"`
	Similarity float64 `json:"similarity"`
}

// DocumentRecord is the persisted index entry for one document.
//
// Neighbors caches the filtered result of the most recent similarity query
// against this document. A nil slice means no cached result; an empty non-nil
// slice means a cached empty result. Any write that changes Embedding must
// carry Neighbors == nil so the cache can never outlive the vector it was
// computed from.
type DocumentRecord struct {
	Path       string     `json:"path"`
	ModifiedAt int64      `json:"modified_at"`
	Embedding  []float32  `json:"embedding,omitempty"`
	Neighbors  []Neighbor `json:"neighbors,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *DocumentRecord) Clone() *DocumentRecord {
	if r == nil {
		return nil
	}
	out := &DocumentRecord{Path: r.Path, ModifiedAt: r.ModifiedAt}
	if r.Embedding != nil {
		out.Embedding = make([]float32, len(r.Embedding))
		copy(out.Embedding, r.Embedding)
	}
	if r.Neighbors != nil {
		out.Neighbors = make([]Neighbor, len(r.Neighbors))
		copy(out.Neighbors, r.Neighbors)
	}
	return out
}
