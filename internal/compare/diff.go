package compare

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/usestring/nfextract-mcp/internal/extract"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/types"
)

// ErrRecordNotFound is returned when a digest has no cached record.
var ErrRecordNotFound = errors.New("record not found")

// RecordSource looks up cached extractions by digest.
type RecordSource interface {
	Lookup(digest string) (*extract.Result, bool)
}

// DiffEngine compares two cached records and produces structured differences.
type DiffEngine struct {
	records RecordSource
}

// NewDiffEngine creates a new DiffEngine.
func NewDiffEngine(records RecordSource) *DiffEngine {
	return &DiffEngine{records: records}
}

// Diff compares the records behind two digests.
func (d *DiffEngine) Diff(ctx context.Context, req *types.DiffRequest) (*types.RecordDiff, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baseline, ok := d.records.Lookup(req.BaselineDigest)
	if !ok {
		return nil, fmt.Errorf("baseline %s: %w", req.BaselineDigest, ErrRecordNotFound)
	}
	candidate, ok := d.records.Lookup(req.CandidateDigest)
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", req.CandidateDigest, ErrRecordNotFound)
	}

	result := DiffRecords(baseline.Record, candidate.Record, req.Options)
	result.BaselineDigest = baseline.Digest
	result.CandidateDigest = candidate.Digest
	result.BaselineSource = string(baseline.Source)
	result.CandidateSource = string(candidate.Source)
	return result, nil
}

// DiffRecords compares two records field by field. Fields are visited in
// baseline order, then candidate-only fields in candidate order.
func DiffRecords(baseline, candidate *fiscal.Record, opts *types.DiffOptions) *types.RecordDiff {
	if opts == nil {
		opts = &types.DiffOptions{}
	}
	ignore := toSet(opts.IgnoreFields)
	keys := toSet(opts.KeyFields)
	if opts.KeyFields == nil {
		keys = make(map[string]struct{}, len(DefaultKeyFields))
		for _, f := range DefaultKeyFields {
			keys[string(f)] = struct{}{}
		}
	}

	result := &types.RecordDiff{}
	important := &result.ImportantDiffs
	noisy := &result.NoisyDiffs

	for _, name := range fieldUnion(baseline, candidate) {
		bv, inBaseline := baseline.Get(name)
		cv, inCandidate := candidate.Get(name)

		switch {
		case !inCandidate:
			noisy.OnlyInBaseline = append(noisy.OnlyInBaseline, string(name))
			continue
		case !inBaseline:
			noisy.OnlyInCandidate = append(noisy.OnlyInCandidate, string(name))
			continue
		}

		if _, skip := ignore[string(name)]; skip {
			if bv != cv {
				noisy.Ignored = append(noisy.Ignored, string(name))
			}
			continue
		}

		_, key := keys[string(name)]
		change := types.FieldChange{Field: string(name), Baseline: bv, Candidate: cv, Key: key}
		bFound := fiscal.Field{Name: name, Value: bv}.Found()
		cFound := fiscal.Field{Name: name, Value: cv}.Found()

		switch {
		case !bFound && !cFound:
			// Both unresolved; NotFound vs Unspecified is not a disagreement.
		case bFound && !cFound:
			important.FoundInBaselineOnly = append(important.FoundInBaselineOnly, change)
		case !bFound && cFound:
			important.FoundInCandidateOnly = append(important.FoundInCandidateOnly, change)
		case bv == cv:
		case Canonical(name, bv) == Canonical(name, cv):
			noisy.FormatOnly = append(noisy.FormatOnly, change)
		default:
			important.Changed = append(important.Changed, change)
		}
	}

	result.Equal = important.Empty()
	return result
}

func fieldUnion(a, b *fiscal.Record) []fiscal.FieldName {
	var names []fiscal.FieldName
	for _, f := range a.Fields() {
		names = append(names, f.Name)
	}
	for _, f := range b.Fields() {
		if !slices.Contains(names, f.Name) {
			names = append(names, f.Name)
		}
	}
	return names
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
