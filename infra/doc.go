// Package infra contains technical adapters: spreadsheet codecs, reference
// store backends, file locks, metrics exporters and trigger sources. These
// packages depend only on the interfaces defined in the core packages.
package infra
