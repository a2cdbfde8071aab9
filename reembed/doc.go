// Package reembed provides maintenance jobs over stored documents: re-embedding
// every chunk with a new or updated embedding model, and rebuilding the concept
// index from scratch.
//
// Both jobs walk documents in ingestion order in batches and report progress.
// Embedding calls are retried with exponential backoff; vectors are normalized
// to keep cosine similarity search consistent across models.
package reembed
