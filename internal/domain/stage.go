package domain

import "fmt"

// BuildStage is a position in the set authoring wizard.
type BuildStage int

const (
	StageDetails BuildStage = iota
	StageRound1
	StageRound1DailyDouble
	StageRound2
	StageRound2DailyDouble
	StageFinalClue
)

var stageNames = [...]string{
	StageDetails:           "details",
	StageRound1:            "round1",
	StageRound1DailyDouble: "round1DailyDouble",
	StageRound2:            "round2",
	StageRound2DailyDouble: "round2DailyDouble",
	StageFinalClue:         "finalClue",
}

func (s BuildStage) String() string {
	if s < StageDetails || s > StageFinalClue {
		return fmt.Sprintf("BuildStage(%d)", int(s))
	}
	return stageNames[s]
}

// Valid reports whether s is one of the six wizard stages.
func (s BuildStage) Valid() bool {
	return s >= StageDetails && s <= StageFinalClue
}

// IsRound2 reports whether the stage only exists for two-round sets.
func (s BuildStage) IsRound2() bool {
	return s == StageRound2 || s == StageRound2DailyDouble
}

func (s BuildStage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal stage %d: out of range", int(s))
	}
	return []byte(stageNames[s]), nil
}

func (s *BuildStage) UnmarshalText(text []byte) error {
	stage, err := ParseBuildStage(string(text))
	if err != nil {
		return err
	}
	*s = stage
	return nil
}

// ParseBuildStage maps a stage name back to its value.
func ParseBuildStage(name string) (BuildStage, error) {
	for i, n := range stageNames {
		if n == name {
			return BuildStage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown build stage %q", name)
}
