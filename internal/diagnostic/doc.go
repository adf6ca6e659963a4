// Package diagnostic collects the errors, warnings and notes found while
// checking model definition files.
//
// Each diagnostic carries a stable code, the model it belongs to, a dotted
// path into the definition and optional "did you mean" suggestions.
package diagnostic
