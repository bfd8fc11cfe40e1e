// Package builder implements the set authoring wizard as a pure state machine.
//
// A State is an immutable snapshot; Machine.Dispatch applies one Intent and
// returns the next snapshot without touching its input. Nothing here performs
// I/O, so the whole wizard can be driven from tests without a store.
package builder

import "trivia-builder-service/internal/domain"

var (
	round1Points = [domain.CluesPerCategory]int{200, 400, 600, 800, 1000}
	round2Points = [domain.CluesPerCategory]int{400, 800, 1200, 1600, 2000}
)

// Focus names the field a client should highlight after a blocked advance.
type Focus struct {
	Stage    domain.BuildStage `json:"stage"`
	Field    string            `json:"field"`
	Round    int               `json:"round,omitempty"`
	Category int               `json:"category"`
	Row      int               `json:"row"`
}

// State is one snapshot of a builder session.
//
// Round1 and Round2 hold every materialized category; only the first
// Set.Round1Len / Set.Round2Len are visible. Hidden categories keep their text
// so re-adding them restores it.
type State struct {
	Set          domain.CustomSet             `json:"set"`
	Round1       []domain.Category            `json:"round1"`
	Round2       []domain.Category            `json:"round2"`
	Current      domain.BuildStage            `json:"current"`
	MostAdvanced domain.BuildStage            `json:"mostAdvanced"`
	Dirty        int                          `json:"dirty"`
	PointValues  [domain.CluesPerCategory]int `json:"pointValues"`
	Completed    bool                         `json:"completed"`
	Focus        *Focus                       `json:"focus,omitempty"`
	Orphaned     []string                     `json:"-"`
}

// NewState returns the empty single-round set a new builder session starts with.
func NewState(ownerID string) State {
	s := State{
		Set: domain.CustomSet{
			OwnerID:   ownerID,
			Round1Len: domain.MinRoundLen,
			Round2Len: domain.MinRoundLen,
			IsDraft:   true,
		},
		Round1:      blankCategories(1, domain.MinRoundLen),
		Current:     domain.StageDetails,
		PointValues: round1Points,
	}
	RecomputeWatermark(&s)
	return s
}

// Clone returns a deep copy; snapshots handed out never share backing arrays.
func (s State) Clone() State {
	out := s
	out.Set = s.Set.Clone()
	out.Round1 = append([]domain.Category(nil), s.Round1...)
	out.Round2 = append([]domain.Category(nil), s.Round2...)
	out.Orphaned = append([]string(nil), s.Orphaned...)
	if s.Focus != nil {
		f := *s.Focus
		out.Focus = &f
	}
	return out
}

// Stages lists the in-scope stages in wizard order.
func (s State) Stages() []domain.BuildStage {
	return stagesFor(s.Set.HasTwoRounds)
}

// Visible returns the visible categories of a round; nil for an out-of-scope round.
func (s State) Visible(round int) []domain.Category {
	cats, n := s.roundView(round)
	if n > len(cats) {
		n = len(cats)
	}
	return cats[:n]
}

func (s State) roundView(round int) ([]domain.Category, int) {
	switch round {
	case 1:
		return s.Round1, s.Set.Round1Len
	case 2:
		if s.Set.HasTwoRounds {
			return s.Round2, s.Set.Round2Len
		}
	}
	return nil, 0
}

// board returns writable handles on a round's categories and visible length.
func (s *State) board(round int) (*[]domain.Category, *int, error) {
	switch round {
	case 1:
		return &s.Round1, &s.Set.Round1Len, nil
	case 2:
		if s.Set.HasTwoRounds {
			return &s.Round2, &s.Set.Round2Len, nil
		}
		return nil, nil, domain.ErrRoundNotInScope
	}
	return nil, nil, domain.ErrRoundNotInScope
}

func (s *State) enter(stage domain.BuildStage) {
	s.Current = stage
	s.PointValues = pointValuesFor(stage)
}

func pointValuesFor(stage domain.BuildStage) [domain.CluesPerCategory]int {
	if stage.IsRound2() {
		return round2Points
	}
	return round1Points
}

func stagesFor(twoRounds bool) []domain.BuildStage {
	if twoRounds {
		return []domain.BuildStage{
			domain.StageDetails,
			domain.StageRound1,
			domain.StageRound1DailyDouble,
			domain.StageRound2,
			domain.StageRound2DailyDouble,
			domain.StageFinalClue,
		}
	}
	return []domain.BuildStage{
		domain.StageDetails,
		domain.StageRound1,
		domain.StageRound1DailyDouble,
		domain.StageFinalClue,
	}
}

func nextStage(twoRounds bool, stage domain.BuildStage) domain.BuildStage {
	if stage >= domain.StageFinalClue {
		return domain.StageFinalClue
	}
	next := stage + 1
	if !twoRounds && next.IsRound2() {
		next = domain.StageFinalClue
	}
	return next
}

func prevStage(twoRounds bool, stage domain.BuildStage) domain.BuildStage {
	if stage <= domain.StageDetails {
		return domain.StageDetails
	}
	prev := stage - 1
	if !twoRounds && prev.IsRound2() {
		prev = domain.StageRound1DailyDouble
	}
	return prev
}

func blankCategories(round, n int) []domain.Category {
	cats := make([]domain.Category, n)
	for i := range cats {
		cats[i] = domain.Category{Round: round, Index: i}
	}
	return cats
}
