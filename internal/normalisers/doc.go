// Package normalisers converts the file formats the loader accepts into text
// for the chunker. Each subpackage handles one format; the Registry picks one
// by file extension.
package normalisers
