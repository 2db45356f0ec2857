// Package factory instantiates pluggable modules, such as metrics sinks,
// from configuration entries of the form {type, conf}. Factories decode
// conf into their own settings struct with Decode.
package factory
