package types

// DiffRequest asks for the differences between two cached records.
type DiffRequest struct {
	BaselineDigest  string       `json:"baseline_digest"`
	CandidateDigest string       `json:"candidate_digest"`
	Options         *DiffOptions `json:"options,omitempty"`
}

// DiffOptions controls record comparison.
type DiffOptions struct {
	// IgnoreFields are reported as ignored instead of compared.
	IgnoreFields []string `json:"ignore_fields,omitempty"`
	// KeyFields are flagged as key on every change. Nil means the default
	// identity fields.
	KeyFields []string `json:"key_fields,omitempty"`
}

// FieldChange is one field whose value differs between two records.
type FieldChange struct {
	Field     string `json:"field"`
	Baseline  string `json:"baseline"`
	Candidate string `json:"candidate"`
	Key       bool   `json:"key,omitempty"`
}

// ImportantDiffs are differences a reviewer has to resolve.
type ImportantDiffs struct {
	// Changed fields were found in both records with different values.
	Changed []FieldChange `json:"changed,omitzero"`
	// FoundInBaselineOnly fields hold a value in the baseline and a
	// sentinel in the candidate.
	FoundInBaselineOnly []FieldChange `json:"found_in_baseline_only,omitzero"`
	// FoundInCandidateOnly is the reverse.
	FoundInCandidateOnly []FieldChange `json:"found_in_candidate_only,omitzero"`
}

// NoisyDiffs are differences that do not change the meaning of a record.
type NoisyDiffs struct {
	// FormatOnly values differ only in punctuation, padding or decimal
	// notation, e.g. "1.000,5" and "1000.5".
	FormatOnly []FieldChange `json:"format_only,omitzero"`
	// OnlyInBaseline fields are absent from the candidate's field set, as
	// terminal fields are absent from text records.
	OnlyInBaseline  []string `json:"only_in_baseline,omitzero"`
	OnlyInCandidate []string `json:"only_in_candidate,omitzero"`
	Ignored         []string `json:"ignored,omitzero"`
}

// RecordDiff is the comparison of two records.
type RecordDiff struct {
	BaselineDigest  string         `json:"baseline_digest"`
	CandidateDigest string         `json:"candidate_digest"`
	BaselineSource  string         `json:"baseline_source"`
	CandidateSource string         `json:"candidate_source"`
	Equal           bool           `json:"equal"`
	ImportantDiffs  ImportantDiffs `json:"important_diffs"`
	NoisyDiffs      NoisyDiffs     `json:"noisy_diffs"`
}

// Empty reports whether there are no important differences.
func (d ImportantDiffs) Empty() bool {
	return len(d.Changed) == 0 && len(d.FoundInBaselineOnly) == 0 && len(d.FoundInCandidateOnly) == 0
}
