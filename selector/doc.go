// Package selector decides how a query is answered.
//
// A Selector runs an ordered chain of guarded rules against the query and
// stops at the first one that fires:
//
//  1. greeting: salutations, chit-chat and short queries without a domain concept
//  2. external-data: a weather concept together with a location
//  3. concept-retrieval: a candidate whose concept sub-score clears a high threshold
//  4. semantic-fallback: a candidate whose semantic similarity clears the floor
//  5. exhausted: nothing matched
//
// The chain is total. Scorer and locator failures are logged and the affected
// rules see no evidence, so every query ends with exactly one decision. Each
// decision carries a rationale naming the rule, the concepts and the
// thresholds involved.
package selector
