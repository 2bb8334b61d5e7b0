package models

// ClassificationResult is one classifier verdict for one user message. It is
// consumed by the dialog machine immediately and never persisted.
type ClassificationResult struct {
	Intent       Intent     `json:"intent"`
	TargetBrand  string     `json:"target_brand,omitempty"`
	UserCarBrand string     `json:"user_car_brand,omitempty"`
	Slots        Slots      `json:"slots,omitempty"`
	Confidence   Confidence `json:"confidence"`
}

// FallbackClassification is what the classifier degrades to on any internal
// failure: the dialog treats it as "could not understand".
func FallbackClassification() ClassificationResult {
	return ClassificationResult{
		Intent:     IntentOther,
		Confidence: ConfidenceLow,
		Slots:      Slots{},
	}
}

// Unresolved reports whether the result needs the one-shot clarification
// loop: either the catch-all intent or a low-certainty verdict.
func (r ClassificationResult) Unresolved() bool {
	return r.Intent == IntentOther || r.Confidence == ConfidenceLow
}
