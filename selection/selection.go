package selection

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jsphweid/chordfuse/constants"
	"github.com/jsphweid/chordfuse/model"
)

// NoCandidatesError is returned when a song has no candidate sequences at all.
type NoCandidatesError struct {
	SongID string
}

func (e *NoCandidatesError) Error() string {
	if e.SongID == "" {
		return "no candidate label sequences"
	}
	return fmt.Sprintf("song %s: no candidate label sequences", e.SongID)
}

func (e *NoCandidatesError) ErrorKind() string {
	return "no_data"
}

type Selector interface {
	Select(candidates []model.LabelSequence, scores model.Scores) ([]model.LabelSequence, error)
	Name() string
}

const (
	PolicyPassThrough  = "pass_through"
	PolicyExpectedBest = "expected_best"
)

func New(policy string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case PolicyPassThrough:
		return PassThrough{}, nil
	case PolicyExpectedBest, "":
		return ExpectedBest{Epsilon: constants.Epsilon}, nil
	}
	return nil, fmt.Errorf("unknown selection policy %q", policy)
}

// PassThrough selects every candidate in input order.
type PassThrough struct{}

func (PassThrough) Name() string { return PolicyPassThrough }

func (PassThrough) Select(candidates []model.LabelSequence, _ model.Scores) ([]model.LabelSequence, error) {
	if len(candidates) == 0 {
		return nil, &NoCandidatesError{}
	}
	return append([]model.LabelSequence(nil), candidates...), nil
}

// ExpectedBest selects all audio estimates and, per symbolic kind, the single
// candidate with the highest quality. Equal scores go to the smallest ID.
type ExpectedBest struct {
	Epsilon float64
}

func (ExpectedBest) Name() string { return PolicyExpectedBest }

func (s ExpectedBest) Select(candidates []model.LabelSequence, scores model.Scores) ([]model.LabelSequence, error) {
	if len(candidates) == 0 {
		return nil, &NoCandidatesError{}
	}

	var res []model.LabelSequence
	for _, group := range Rank(candidates, scores, s.Epsilon) {
		if group.Kind == model.AudioACE {
			for _, r := range group.Ranked {
				res = append(res, r.Sequence)
			}
			continue
		}
		res = append(res, group.Ranked[0].Sequence)
	}
	return res, nil
}

type Ranked struct {
	Sequence model.LabelSequence
	Quality  model.QualityScore
}

// KindRanking holds the candidates of one source kind, best first.
type KindRanking struct {
	Kind   model.SourceKind
	Ranked []Ranked
}

// Rank groups candidates by kind in model.SourceKinds order and orders each
// group best first. Kinds without candidates are omitted. Audio estimates
// are ordered by ID only.
func Rank(candidates []model.LabelSequence, scores model.Scores, epsilon float64) []KindRanking {
	byKind := make(map[model.SourceKind][]Ranked)
	for _, c := range candidates {
		byKind[c.Kind] = append(byKind[c.Kind], Ranked{Sequence: c, Quality: scores[c.Ref()]})
	}

	var res []KindRanking
	for _, kind := range model.SourceKinds {
		group := byKind[kind]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Sequence.ID < group[j].Sequence.ID })
		if kind != model.AudioACE {
			group = rankByQuality(group, epsilon)
		}
		res = append(res, KindRanking{Kind: kind, Ranked: group})
	}
	return res
}

// rankByQuality repeatedly takes the remaining candidates within epsilon of
// the highest remaining score and emits the one with the smallest ID.
// Pairwise epsilon comparison is not transitive, so a plain sort would let
// input order decide near-tie chains. group must be sorted by ID.
func rankByQuality(group []Ranked, epsilon float64) []Ranked {
	rest := slices.Clone(group)
	res := make([]Ranked, 0, len(group))
	for len(rest) > 0 {
		top := rest[0].Quality
		for _, r := range rest[1:] {
			if r.Quality.Known && (!top.Known || r.Quality.Value > top.Value) {
				top = r.Quality
			}
		}
		for i, r := range rest {
			if top.Compare(r.Quality, epsilon) == 0 {
				res = append(res, r)
				rest = slices.Delete(rest, i, i+1)
				break
			}
		}
	}
	return res
}
