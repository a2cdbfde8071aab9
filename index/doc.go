// Package index implements the concept index: a mapping from concept label to
// the chunks where the concept occurs, each posting weighted by the
// confidence of the concept that produced it.
//
// # Concurrency
//
// The index is an explicit object with a narrow mutation API (Insert, Remove,
// Rebuild, UnmarshalBinary). Writers are serialized by a mutex and publish a
// new copy-on-write snapshot through an atomic pointer. Readers never lock;
// they observe either the state before a write or the state after it, so a
// document's postings appear and disappear atomically.
//
// # Corpus statistics
//
// The index also maintains chunk-level document frequencies for every
// normalized term. It implements extract.CorpusStats so extraction can weight
// terms by inverse document frequency.
//
// # Persistence
//
// MarshalBinary produces a checksummed snapshot keyed by concept label.
// UnmarshalBinary validates the snapshot structurally and returns an error
// wrapping core.ErrIndexCorruption on any inconsistency, leaving the live
// index untouched.
package index
