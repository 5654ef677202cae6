package pipeline

import "fmt"

// StaleInputError is returned when a stored intermediate document was computed
// for a different bookmark export than the one being processed
type StaleInputError struct {
	Document string // stored file name
	Stage    string // stage that regenerates the document
}

func (e *StaleInputError) Error() string {
	return fmt.Sprintf("%s was computed for a different bookmark export; rerun the %s stage", e.Document, e.Stage)
}

// checkInput compares a stored input fingerprint with the current export.
// Documents written before fingerprints were recorded carry none and are accepted.
func checkInput(document, stage, stored, current string) error {
	if stored != "" && stored != current {
		return &StaleInputError{Document: document, Stage: stage}
	}
	return nil
}
