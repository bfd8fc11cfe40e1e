package domain

import "time"

const (
	// MinRoundLen and MaxRoundLen bound the number of visible categories per round.
	MinRoundLen = 3
	MaxRoundLen = 6
	// CluesPerCategory is the number of point-value slots in every category.
	CluesPerCategory = 5
)

// Cell addresses one clue slot on a round board.
type Cell struct {
	Category int `json:"category"`
	Row      int `json:"row"`
}

// CustomSet is a user-authored trivia set. Drafts and published sets share this
// document; IsDraft is the only thing that separates them.
type CustomSet struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"ownerId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	IsPublic     bool     `json:"isPublic"`
	HasTwoRounds bool     `json:"hasTwoRounds"`
	Round1Len    int      `json:"round1Len"`
	Round2Len    int      `json:"round2Len"`

	Round1CategoryIDs []string `json:"round1CategoryIds"`
	Round2CategoryIDs []string `json:"round2CategoryIds"`

	RoundOneDaily  *Cell `json:"roundOneDaily,omitempty"`
	RoundTwoDaily1 *Cell `json:"roundTwoDaily1,omitempty"`
	RoundTwoDaily2 *Cell `json:"roundTwoDaily2,omitempty"`

	FinalCategory string `json:"finalCategory"`
	FinalClue     string `json:"finalClue"`
	FinalResponse string `json:"finalResponse"`

	IsDraft       bool      `json:"isDraft"`
	NumClues      int       `json:"numClues"`
	CategoryNames []string  `json:"categoryNames"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Clone returns a copy that shares no slices or cells with s.
func (s CustomSet) Clone() CustomSet {
	out := s
	out.Tags = append([]string(nil), s.Tags...)
	out.Round1CategoryIDs = append([]string(nil), s.Round1CategoryIDs...)
	out.Round2CategoryIDs = append([]string(nil), s.Round2CategoryIDs...)
	out.CategoryNames = append([]string(nil), s.CategoryNames...)
	out.RoundOneDaily = s.RoundOneDaily.clone()
	out.RoundTwoDaily1 = s.RoundTwoDaily1.clone()
	out.RoundTwoDaily2 = s.RoundTwoDaily2.clone()
	return out
}

func (c *Cell) clone() *Cell {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Category is one column of clues within a round.
type Category struct {
	ID        string                   `json:"id"`
	SetID     string                   `json:"setId"`
	Round     int                      `json:"round"`
	Index     int                      `json:"index"`
	Name      string                   `json:"name"`
	Clues     [CluesPerCategory]string `json:"clues"`
	Responses [CluesPerCategory]string `json:"responses"`
}

// Filled reports whether the slot at row has both a clue and a response.
func (c Category) Filled(row int) bool {
	if row < 0 || row >= CluesPerCategory {
		return false
	}
	return c.Clues[row] != "" && c.Responses[row] != ""
}

// FilledCount counts the filled slots of the category.
func (c Category) FilledCount() int {
	n := 0
	for row := 0; row < CluesPerCategory; row++ {
		if c.Filled(row) {
			n++
		}
	}
	return n
}

// SetStatus selects drafts or published sets in listings.
type SetStatus string

const (
	StatusDraft     SetStatus = "draft"
	StatusPublished SetStatus = "published"
)

// ParseSetStatus accepts "draft"/"drafts" and "published"/"sets".
func ParseSetStatus(raw string) (SetStatus, error) {
	switch raw {
	case "draft", "drafts":
		return StatusDraft, nil
	case "published", "sets", "":
		return StatusPublished, nil
	}
	return "", ErrInvalidStatus
}

// SaveStatus is the outcome class of a save.
type SaveStatus string

const (
	SaveOK                SaveStatus = "ok"
	SaveIOFailure         SaveStatus = "io_failure"
	SaveValidationFailure SaveStatus = "validation_failure"
)

// SaveResult is reported to the client after every save attempt.
type SaveResult struct {
	Status   SaveStatus `json:"status"`
	SetID    string     `json:"setId,omitempty"`
	IsDraft  bool       `json:"isDraft"`
	NumClues int        `json:"numClues"`
	Message  string     `json:"message,omitempty"`
}
