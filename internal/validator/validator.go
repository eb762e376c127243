// Package validator checks that refined translations are actually in
// English. A stylist response that slips back into Persian (or echoes the
// Arabic it was asked to preserve as the whole poem) must be caught
// before the record publishes.
package validator

import (
	"fmt"
	"strings"

	"github.com/khorshidlab/divantran/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt
// language detection. Shorter texts produce unreliable results and are
// accepted without validation.
const minValidationLength = 20

// Validator checks that a refined translation is written in English.
// The underlying language detector is expensive to build; reuse the
// instance across a run.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// CheckEnglish returns nil when text appears to be English. Short texts
// and texts whose language cannot be determined pass without error; a
// ghazal legitimately quotes Persian terms and Arabic phrases inline, so
// only a whole-text misclassification counts as a failure.
func (v *Validator) CheckEnglish(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}

	// Detector is unreliable for very short texts; skip validation.
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		// Ambiguous language, cannot validate.
		return nil
	}
	if !strings.EqualFold(detected, "en") {
		return fmt.Errorf("expected English output but detected %s", detected)
	}
	return nil
}
