// Package sample bundles a small guide used when the client runs without the
// analysis service.
package sample

import (
	_ "embed"

	"github.com/five82/brickguide/internal/guide"
)

//go:embed smile.json
var smileJSON []byte

// Guide returns a fresh copy of the bundled smile guide.
func Guide() (*guide.Payload, error) {
	return guide.DecodePayload(smileJSON)
}

// Steps returns the construction steps bundled with the sample guide.
func Steps() ([]guide.Step, error) {
	return guide.ParseSteps(smileJSON)
}
