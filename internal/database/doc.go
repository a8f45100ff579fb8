// Package database stores the history of generated credential documents
// in a SQLite file (modernc.org/sqlite, no cgo).
//
// Only metadata is kept: organization, record and page counts, format,
// output location and a SHA3-256 digest of the document bytes. Student
// records and passwords are never written to the database; the digest is
// enough to tell whether a handout found later is one credsheet produced.
package database
