// Package match ranks known names against a misspelled one.
//
// Definition files refer to models, attributes and policies by name. When a
// reference does not resolve, the validator asks this package for the closest
// known names and reports them as "did you mean" suggestions.
package match
