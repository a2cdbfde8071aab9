// Package reconstruct rebuilds readable context from ranked chunks.
//
// Each ranked chunk is an anchor. The reconstructor widens every anchor with
// up to windowSize neighbours on each side within the same document, merges
// overlapping windows, and orders the result by document relevance and chunk
// position. An optional token budget drops whole chunks, neighbours before
// anchors and lowest score first, but always keeps at least one chunk.
package reconstruct
