// Package ingestion provides pipeline orchestration for ingesting documents.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Splitting text into overlapping chunks
//   - Adding documents to storage
//   - Indexing chunk concepts synchronously
//   - Generating chunk embeddings asynchronously
//   - Checkpointing the concept index asynchronously
//
// Processing is performed concurrently using worker pools to maximize throughput.
// Errors during async processing are logged but do not fail the ingestion operation.
package ingestion
