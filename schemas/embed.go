// Package schemas holds the JSON Schema documents shipped with the tracker.
package schemas

import _ "embed"

// CandidateIntake is the intake schema used for jobs that do not define one.
//
//go:embed candidate_intake.schema.json
var CandidateIntake []byte
