// Package model defines the data structures shared across credsheet.
//
// This package contains the following main types:
//   - CredentialRecord: One student's identity and temporary login fields
//   - CredentialSheet: An organization's ordered list of records
//   - Issue: An advisory validation finding for a record
//   - Job: A handout moving through the generation pipeline
//
// Models live in their own package because the loader, pipeline, report
// writers and server all use them; keeping them here avoids import cycles.
package model
