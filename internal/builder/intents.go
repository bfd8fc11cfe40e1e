package builder

import (
	"strings"

	"trivia-builder-service/internal/domain"
)

// Intent is a single user action forwarded by the presentation layer.
type Intent interface {
	Kind() string
}

// edit is an intent that changes set content. Every applied edit bumps the
// dirty counter and recomputes the watermark.
type edit interface {
	Intent
	apply(s *State) error
}

// Navigation.

type Advance struct{}

type Retreat struct{}

// JumpTo moves the cursor to any stage already reached.
type JumpTo struct {
	Stage domain.BuildStage `json:"stage"`
}

func (Advance) Kind() string { return "advance" }
func (Retreat) Kind() string { return "retreat" }
func (JumpTo) Kind() string  { return "jumpTo" }

// Details.

type SetTitle struct {
	Title string `json:"title"`
}

type SetDescription struct {
	Description string `json:"description"`
}

type AddTag struct {
	Tag string `json:"tag"`
}

type RemoveTag struct {
	Tag string `json:"tag"`
}

type SetPublic struct {
	Public bool `json:"public"`
}

type SetHasTwoRounds struct {
	TwoRounds bool `json:"twoRounds"`
}

func (SetTitle) Kind() string        { return "setTitle" }
func (SetDescription) Kind() string  { return "setDescription" }
func (AddTag) Kind() string          { return "addTag" }
func (RemoveTag) Kind() string       { return "removeTag" }
func (SetPublic) Kind() string       { return "setPublic" }
func (SetHasTwoRounds) Kind() string { return "setHasTwoRounds" }

func (in SetTitle) apply(s *State) error {
	s.Set.Title = strings.TrimSpace(in.Title)
	return nil
}

func (in SetDescription) apply(s *State) error {
	s.Set.Description = strings.TrimSpace(in.Description)
	return nil
}

func (in AddTag) apply(s *State) error {
	tag := strings.ToUpper(strings.TrimSpace(in.Tag))
	if tag == "" {
		return nil
	}
	for _, t := range s.Set.Tags {
		if t == tag {
			return nil
		}
	}
	s.Set.Tags = append(s.Set.Tags, tag)
	return nil
}

func (in RemoveTag) apply(s *State) error {
	tag := strings.ToUpper(strings.TrimSpace(in.Tag))
	tags := s.Set.Tags[:0]
	for _, t := range s.Set.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	s.Set.Tags = tags
	return nil
}

func (in SetPublic) apply(s *State) error {
	s.Set.IsPublic = in.Public
	return nil
}

func (in SetHasTwoRounds) apply(s *State) error {
	if in.TwoRounds == s.Set.HasTwoRounds {
		return nil
	}
	s.Set.HasTwoRounds = in.TwoRounds
	if in.TwoRounds {
		if s.Set.Round2Len < domain.MinRoundLen || s.Set.Round2Len > domain.MaxRoundLen {
			s.Set.Round2Len = domain.MinRoundLen
		}
		if len(s.Round2) < s.Set.Round2Len {
			s.Round2 = blankCategories(2, s.Set.Round2Len)
		}
		return nil
	}

	// Downgrade: round-2 documents become orphans and are deleted on the next save.
	for _, c := range s.Round2 {
		if c.ID != "" {
			s.Orphaned = append(s.Orphaned, c.ID)
		}
	}
	s.Round2 = nil
	s.Set.Round2CategoryIDs = nil
	s.Set.Round2Len = domain.MinRoundLen
	s.Set.RoundTwoDaily1 = nil
	s.Set.RoundTwoDaily2 = nil
	if s.Current.IsRound2() {
		s.enter(domain.StageRound1DailyDouble)
	}
	return nil
}

// Rounds.

type AddCategory struct {
	Round int `json:"round"`
}

type RemoveCategory struct {
	Round int `json:"round"`
}

type SetCategoryName struct {
	Round    int    `json:"round"`
	Category int    `json:"category"`
	Name     string `json:"name"`
}

type SetClue struct {
	Round    int    `json:"round"`
	Category int    `json:"category"`
	Row      int    `json:"row"`
	Clue     string `json:"clue"`
}

type SetResponse struct {
	Round    int    `json:"round"`
	Category int    `json:"category"`
	Row      int    `json:"row"`
	Response string `json:"response"`
}

func (AddCategory) Kind() string     { return "addCategory" }
func (RemoveCategory) Kind() string  { return "removeCategory" }
func (SetCategoryName) Kind() string { return "setCategoryName" }
func (SetClue) Kind() string         { return "setClue" }
func (SetResponse) Kind() string     { return "setResponse" }

func (in AddCategory) apply(s *State) error {
	cats, n, err := s.board(in.Round)
	if err != nil {
		return err
	}
	if *n >= domain.MaxRoundLen {
		return nil
	}
	if len(*cats) <= *n {
		*cats = append(*cats, domain.Category{Round: in.Round, Index: *n})
	}
	*n++
	return nil
}

func (in RemoveCategory) apply(s *State) error {
	_, n, err := s.board(in.Round)
	if err != nil {
		return err
	}
	if *n > domain.MinRoundLen {
		*n--
	}
	return nil
}

func (in SetCategoryName) apply(s *State) error {
	c, err := s.category(in.Round, in.Category, 0)
	if err != nil {
		return err
	}
	c.Name = strings.TrimSpace(in.Name)
	return nil
}

func (in SetClue) apply(s *State) error {
	c, err := s.category(in.Round, in.Category, in.Row)
	if err != nil {
		return err
	}
	c.Clues[in.Row] = strings.TrimSpace(in.Clue)
	return nil
}

func (in SetResponse) apply(s *State) error {
	c, err := s.category(in.Round, in.Category, in.Row)
	if err != nil {
		return err
	}
	c.Responses[in.Row] = strings.TrimSpace(in.Response)
	return nil
}

// category resolves a visible category for editing.
func (s *State) category(round, index, row int) (*domain.Category, error) {
	cats, n, err := s.board(round)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= *n || index >= len(*cats) || row < 0 || row >= domain.CluesPerCategory {
		return nil, domain.ErrInvalidCell
	}
	return &(*cats)[index], nil
}

// Daily doubles.

// SetDailyDouble places one daily double by hand. Slot is 0 for round 1 and
// 0 or 1 for round 2.
type SetDailyDouble struct {
	Round int         `json:"round"`
	Slot  int         `json:"slot"`
	Cell  domain.Cell `json:"cell"`
}

type ClearDailyDoubles struct {
	Round int `json:"round"`
}

// RandomDailyDouble replaces the round's daily doubles with random filled cells.
type RandomDailyDouble struct {
	Round int `json:"round"`
}

func (SetDailyDouble) Kind() string    { return "setDailyDouble" }
func (ClearDailyDoubles) Kind() string { return "clearDailyDoubles" }
func (RandomDailyDouble) Kind() string { return "randomDailyDouble" }

func (in SetDailyDouble) apply(s *State) error {
	if _, _, err := s.board(in.Round); err != nil {
		return err
	}
	if !cellPlayable(s.Visible(in.Round), in.Cell) {
		return domain.ErrInvalidDailyDouble
	}
	cell := in.Cell
	switch {
	case in.Round == 1 && in.Slot == 0:
		s.Set.RoundOneDaily = &cell
	case in.Round == 2 && in.Slot == 0:
		if other := s.Set.RoundTwoDaily2; other != nil && other.Category == cell.Category {
			return domain.ErrInvalidDailyDouble
		}
		s.Set.RoundTwoDaily1 = &cell
	case in.Round == 2 && in.Slot == 1:
		if other := s.Set.RoundTwoDaily1; other != nil && other.Category == cell.Category {
			return domain.ErrInvalidDailyDouble
		}
		s.Set.RoundTwoDaily2 = &cell
	default:
		return domain.ErrInvalidDailyDouble
	}
	return nil
}

func (in ClearDailyDoubles) apply(s *State) error {
	if _, _, err := s.board(in.Round); err != nil {
		return err
	}
	clearDailyDoubles(s, in.Round)
	return nil
}

func clearDailyDoubles(s *State, round int) {
	if round == 1 {
		s.Set.RoundOneDaily = nil
		return
	}
	s.Set.RoundTwoDaily1 = nil
	s.Set.RoundTwoDaily2 = nil
}

// Final clue.

type SetFinalCategory struct {
	Category string `json:"category"`
}

type SetFinalClue struct {
	Clue string `json:"clue"`
}

type SetFinalResponse struct {
	Response string `json:"response"`
}

func (SetFinalCategory) Kind() string { return "setFinalCategory" }
func (SetFinalClue) Kind() string     { return "setFinalClue" }
func (SetFinalResponse) Kind() string { return "setFinalResponse" }

func (in SetFinalCategory) apply(s *State) error {
	s.Set.FinalCategory = strings.TrimSpace(in.Category)
	return nil
}

func (in SetFinalClue) apply(s *State) error {
	s.Set.FinalClue = strings.TrimSpace(in.Clue)
	return nil
}

func (in SetFinalResponse) apply(s *State) error {
	s.Set.FinalResponse = strings.TrimSpace(in.Response)
	return nil
}
