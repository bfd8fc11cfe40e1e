package builder

import "trivia-builder-service/internal/domain"

// CanAdvance is the minimum bar to leave the current stage.
func CanAdvance(s State) bool {
	return stageReady(s, s.Current, false)
}

// StageComplete is the stricter bar a stage must meet before a set can publish.
func StageComplete(s State, stage domain.BuildStage) bool {
	return stageReady(s, stage, true)
}

// IsPublishable reports whether every in-scope stage is complete.
func IsPublishable(s State) bool {
	for _, stage := range s.Stages() {
		if !stageReady(s, stage, true) {
			return false
		}
	}
	return true
}

// RecomputeWatermark moves MostAdvanced to the first stage that is not complete,
// or to the final stage when every earlier one is. Reaching a stage requires an
// unbroken run of complete stages before it.
func RecomputeWatermark(s *State) {
	mark := domain.StageDetails
	for _, stage := range s.Stages() {
		mark = stage
		if !stageReady(*s, stage, true) {
			break
		}
	}
	s.MostAdvanced = mark
}

func stageReady(s State, stage domain.BuildStage, strict bool) bool {
	set := s.Set
	switch stage {
	case domain.StageDetails:
		return set.Title != "" && len(set.Tags) > 0
	case domain.StageRound1:
		return roundReady(s.Round1, set.Round1Len, strict)
	case domain.StageRound1DailyDouble:
		if set.RoundOneDaily == nil {
			return false
		}
		return !strict || cellPlayable(s.Visible(1), *set.RoundOneDaily)
	case domain.StageRound2:
		if !set.HasTwoRounds {
			return false
		}
		return roundReady(s.Round2, set.Round2Len, strict)
	case domain.StageRound2DailyDouble:
		d1, d2 := set.RoundTwoDaily1, set.RoundTwoDaily2
		if !set.HasTwoRounds || d1 == nil || d2 == nil || d1.Category == d2.Category {
			return false
		}
		if !strict {
			return true
		}
		visible := s.Visible(2)
		return cellPlayable(visible, *d1) && cellPlayable(visible, *d2)
	case domain.StageFinalClue:
		return set.FinalCategory != "" && set.FinalClue != "" && set.FinalResponse != ""
	}
	return false
}

// roundReady counts categories that have a name and at least one filled clue.
// The lenient form counts every materialized category, the strict form needs
// every visible one.
func roundReady(cats []domain.Category, visible int, strict bool) bool {
	if strict {
		if len(cats) < visible {
			return false
		}
		for _, c := range cats[:visible] {
			if !categoryReady(c) {
				return false
			}
		}
		return true
	}
	ready := 0
	for _, c := range cats {
		if categoryReady(c) {
			ready++
		}
	}
	return ready >= visible
}

func categoryReady(c domain.Category) bool {
	return c.Name != "" && c.FilledCount() > 0
}

func cellPlayable(visible []domain.Category, cell domain.Cell) bool {
	if cell.Category < 0 || cell.Category >= len(visible) {
		return false
	}
	return visible[cell.Category].Filled(cell.Row)
}

// focusFor points at the first thing blocking an advance from the current stage.
func focusFor(s State) *Focus {
	f := &Focus{Stage: s.Current}
	set := s.Set
	switch s.Current {
	case domain.StageDetails:
		f.Field = "title"
		if set.Title != "" {
			f.Field = "tags"
		}
	case domain.StageRound1, domain.StageRound2:
		round := 1
		if s.Current == domain.StageRound2 {
			round = 2
		}
		f.Round = round
		f.Field = "categoryName"
		for i, c := range s.Visible(round) {
			if c.Name == "" {
				f.Category = i
				return f
			}
			if c.FilledCount() == 0 {
				f.Field = "clue"
				f.Category = i
				return f
			}
		}
	case domain.StageRound1DailyDouble:
		f.Field = "dailyDouble"
		f.Round = 1
	case domain.StageRound2DailyDouble:
		f.Field = "dailyDouble"
		f.Round = 2
	case domain.StageFinalClue:
		switch {
		case set.FinalCategory == "":
			f.Field = "finalCategory"
		case set.FinalClue == "":
			f.Field = "finalClue"
		default:
			f.Field = "finalResponse"
		}
	}
	return f
}
