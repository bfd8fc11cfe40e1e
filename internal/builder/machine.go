package builder

import (
	"fmt"
	"math/rand"

	"trivia-builder-service/internal/domain"
)

// Machine applies intents to builder states. It owns the random source used for
// daily double placement and is not safe for concurrent use.
type Machine struct {
	rnd *rand.Rand
}

func NewMachine(src rand.Source) *Machine {
	return &Machine{rnd: rand.New(src)}
}

// Dispatch applies one intent and returns the next state. On error the input
// state is returned unchanged.
func (m *Machine) Dispatch(s State, in Intent) (State, error) {
	next := s.Clone()
	next.Focus = nil
	next.Completed = false

	switch in := in.(type) {
	case Advance:
		m.advance(&next)
		return next, nil
	case Retreat:
		next.enter(prevStage(next.Set.HasTwoRounds, next.Current))
		return next, nil
	case JumpTo:
		if err := jump(&next, in.Stage); err != nil {
			return s, err
		}
		return next, nil
	case RandomDailyDouble:
		if err := m.randomAssign(&next, in.Round); err != nil {
			return s, err
		}
	case edit:
		if err := in.apply(&next); err != nil {
			return s, fmt.Errorf("%s: %w", in.Kind(), err)
		}
	default:
		return s, domain.ErrUnknownIntent
	}

	next.Dirty++
	RecomputeWatermark(&next)
	return next, nil
}

func (m *Machine) advance(s *State) {
	if !CanAdvance(*s) {
		s.Focus = focusFor(*s)
		return
	}
	if s.Current == domain.StageFinalClue {
		s.Completed = true
		return
	}
	s.enter(nextStage(s.Set.HasTwoRounds, s.Current))
}

func jump(s *State, target domain.BuildStage) error {
	if !target.Valid() || (target.IsRound2() && !s.Set.HasTwoRounds) {
		return domain.ErrRoundNotInScope
	}
	limit := s.MostAdvanced
	if s.Current > limit {
		limit = s.Current
	}
	if target > limit {
		return domain.ErrStageLocked
	}
	s.enter(target)
	return nil
}

// randomAssign clears the round's daily doubles and redraws them by rejection
// sampling over the visible board. Round 2 draws two cells in different
// categories. The candidate check up front guarantees the sampling terminates.
func (m *Machine) randomAssign(s *State, round int) error {
	if _, _, err := s.board(round); err != nil {
		return err
	}
	visible := s.Visible(round)

	need := 1
	if round == 2 {
		need = 2
	}
	withClues := 0
	for _, c := range visible {
		if c.FilledCount() > 0 {
			withClues++
		}
	}
	if withClues < need {
		return fmt.Errorf("round %d: %w", round, domain.ErrNoDailyDoubleCandidates)
	}

	clearDailyDoubles(s, round)
	first := m.sample(visible, -1)
	if round == 1 {
		s.Set.RoundOneDaily = &first
		return nil
	}
	second := m.sample(visible, first.Category)
	s.Set.RoundTwoDaily1 = &first
	s.Set.RoundTwoDaily2 = &second
	return nil
}

func (m *Machine) sample(visible []domain.Category, excludeCategory int) domain.Cell {
	for {
		cell := domain.Cell{
			Category: m.rnd.Intn(len(visible)),
			Row:      m.rnd.Intn(domain.CluesPerCategory),
		}
		if cell.Category == excludeCategory || !visible[cell.Category].Filled(cell.Row) {
			continue
		}
		return cell
	}
}
