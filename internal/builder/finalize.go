package builder

import (
	"fmt"
	"strings"

	"trivia-builder-service/internal/domain"
)

// WithIDs returns a copy whose set and materialized categories all carry ids,
// drawing new ones from newID where missing.
func (s State) WithIDs(newID func() string) State {
	out := s.Clone()
	if out.Set.ID == "" {
		out.Set.ID = newID()
	}
	for _, cats := range [][]domain.Category{out.Round1, out.Round2} {
		for i := range cats {
			if cats[i].ID == "" {
				cats[i].ID = newID()
			}
			cats[i].SetID = out.Set.ID
			cats[i].Index = i
		}
	}
	out.Set.Round1CategoryIDs = categoryIDs(out.Round1)
	out.Set.Round2CategoryIDs = categoryIDs(out.Round2)
	return out
}

// Finalize computes the derived fields of the set right before persistence and
// returns the set with every materialized category to write.
func Finalize(s State) (domain.CustomSet, []domain.Category) {
	set := s.Set.Clone()
	set.NumClues = 0
	set.CategoryNames = nil

	rounds := []int{1}
	if set.HasTwoRounds {
		rounds = append(rounds, 2)
	}
	for _, round := range rounds {
		for _, c := range s.Visible(round) {
			set.NumClues += c.FilledCount()
			set.CategoryNames = append(set.CategoryNames, keywords(c.Name)...)
		}
	}
	set.IsDraft = !IsPublishable(s)
	set.Round1CategoryIDs = categoryIDs(s.Round1)
	set.Round2CategoryIDs = categoryIDs(s.Round2)

	cats := make([]domain.Category, 0, len(s.Round1)+len(s.Round2))
	for i, c := range s.Round1 {
		c.SetID, c.Round, c.Index = set.ID, 1, i
		cats = append(cats, c)
	}
	for i, c := range s.Round2 {
		c.SetID, c.Round, c.Index = set.ID, 2, i
		cats = append(cats, c)
	}
	return set, cats
}

// Validate checks the structural invariants a set must hold to be stored.
func Validate(s State) error {
	set := s.Set
	if set.OwnerID == "" {
		return fmt.Errorf("%w: missing owner", domain.ErrInvalidSet)
	}
	if !validLen(set.Round1Len) || len(s.Round1) < set.Round1Len {
		return fmt.Errorf("%w: round 1 length %d", domain.ErrInvalidSet, set.Round1Len)
	}
	if set.HasTwoRounds && (!validLen(set.Round2Len) || len(s.Round2) < set.Round2Len) {
		return fmt.Errorf("%w: round 2 length %d", domain.ErrInvalidSet, set.Round2Len)
	}
	d1, d2 := set.RoundTwoDaily1, set.RoundTwoDaily2
	if d1 != nil && d2 != nil && d1.Category == d2.Category {
		return fmt.Errorf("%w: round 2 daily doubles share category %d", domain.ErrInvalidSet, d1.Category)
	}
	return nil
}

// Hydrate rebuilds a builder state from a stored set and all of its category
// documents. Categories are placed by their stored round and index, so the
// order they arrive in does not matter. Any mismatch between the set's id
// lists and the categories rejects the whole load.
func Hydrate(set domain.CustomSet, cats []domain.Category) (State, error) {
	if !validLen(set.Round1Len) || (set.HasTwoRounds && !validLen(set.Round2Len)) {
		return State{}, fmt.Errorf("set %s: %w: round length", set.ID, domain.ErrMalformedDocument)
	}

	round1 := make([]domain.Category, len(set.Round1CategoryIDs))
	var round2 []domain.Category
	var orphaned []string
	if set.HasTwoRounds {
		round2 = make([]domain.Category, len(set.Round2CategoryIDs))
	} else {
		orphaned = append(orphaned, set.Round2CategoryIDs...)
	}

	placed := 0
	for _, c := range cats {
		var ids []string
		var dst []domain.Category
		switch c.Round {
		case 1:
			ids, dst = set.Round1CategoryIDs, round1
		case 2:
			if !set.HasTwoRounds {
				continue
			}
			ids, dst = set.Round2CategoryIDs, round2
		default:
			return State{}, fmt.Errorf("category %s: %w: round %d", c.ID, domain.ErrMalformedDocument, c.Round)
		}
		if c.Index < 0 || c.Index >= len(ids) || ids[c.Index] != c.ID || dst[c.Index].ID != "" {
			return State{}, fmt.Errorf("category %s: %w: index %d", c.ID, domain.ErrMalformedDocument, c.Index)
		}
		dst[c.Index] = c
		placed++
	}

	want := len(round1) + len(round2)
	if placed != want {
		return State{}, fmt.Errorf("set %s: %w: %d of %d categories", set.ID, domain.ErrMalformedDocument, placed, want)
	}
	if len(round1) < set.Round1Len || (set.HasTwoRounds && len(round2) < set.Round2Len) {
		return State{}, fmt.Errorf("set %s: %w: fewer categories than visible", set.ID, domain.ErrMalformedDocument)
	}
	if !set.HasTwoRounds {
		set.Round2CategoryIDs = nil
		set.RoundTwoDaily1 = nil
		set.RoundTwoDaily2 = nil
	}

	s := State{
		Set:         set.Clone(),
		Round1:      round1,
		Round2:      round2,
		Current:     domain.StageDetails,
		PointValues: round1Points,
		Orphaned:    orphaned,
	}
	RecomputeWatermark(&s)
	return s, nil
}

// keywords splits a category name into upper-cased search tokens.
func keywords(name string) []string {
	fields := strings.Fields(name)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f)
	}
	return fields
}

func categoryIDs(cats []domain.Category) []string {
	if len(cats) == 0 {
		return nil
	}
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

func validLen(n int) bool {
	return n >= domain.MinRoundLen && n <= domain.MaxRoundLen
}
