// Package pipeline turns credential input files into rendered documents.
//
// A Pipeline runs Steps in order over a model.Job: load the records,
// validate them, fill default passwords, render the document, write it to
// disk and record it in the history database. BatchProcessor runs one
// pipeline per input file with bounded concurrency.
package pipeline
