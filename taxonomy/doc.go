// Package taxonomy holds the fixed concept taxonomy: ten categories, the
// trigger terms that claim a token for a category, per-category weight
// priors and per-term importance.
//
// The table is static. Categories are a closed enumeration (core.Category)
// and there is no runtime registration; a new category is a code change.
//
// Matching operates on normalized stems as produced by Stem:
//
//	tax := taxonomy.Default()
//	for _, m := range tax.Match(taxonomy.Stem("hours")) {
//		fmt.Println(m.Category, m.Term, m.Strength)
//	}
package taxonomy
