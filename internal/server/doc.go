// Package server exposes credential sheet generation over HTTP.
//
// Routes:
//
//	POST /api/v1/credentials/{format}   render a sheet (pdf, markdown, json, text)
//	GET  /api/v1/generations            list recorded generations
//	GET  /api/v1/generations/{id}       show one generation
//	GET  /healthz                       liveness probe
//
// The request body is either a JSON array of student records or an object
// {"organizationName": "...", "students": [...]}. The response is the
// rendered document with a Content-Disposition attachment filename.
// Authentication is expected to be handled in front of this server.
package server
