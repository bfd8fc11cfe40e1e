package http

import (
	"encoding/json"
	"fmt"

	"trivia-builder-service/internal/builder"
	"trivia-builder-service/internal/domain"
)

var intentDecoders = map[string]func(json.RawMessage) (builder.Intent, error){}

func init() {
	register[builder.Advance]()
	register[builder.Retreat]()
	register[builder.JumpTo]()
	register[builder.SetTitle]()
	register[builder.SetDescription]()
	register[builder.AddTag]()
	register[builder.RemoveTag]()
	register[builder.SetPublic]()
	register[builder.SetHasTwoRounds]()
	register[builder.AddCategory]()
	register[builder.RemoveCategory]()
	register[builder.SetCategoryName]()
	register[builder.SetClue]()
	register[builder.SetResponse]()
	register[builder.SetDailyDouble]()
	register[builder.ClearDailyDoubles]()
	register[builder.RandomDailyDouble]()
	register[builder.SetFinalCategory]()
	register[builder.SetFinalClue]()
	register[builder.SetFinalResponse]()
}

func register[T builder.Intent]() {
	var zero T
	intentDecoders[zero.Kind()] = func(raw json.RawMessage) (builder.Intent, error) {
		var in T
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, err
		}
		return in, nil
	}
}

// decodeIntent reads {"kind": "...", ...fields} into the matching intent.
func decodeIntent(raw json.RawMessage) (builder.Intent, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("invalid intent payload: %w", err)
	}
	decode, ok := intentDecoders[head.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownIntent, head.Kind)
	}
	in, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", head.Kind, err)
	}
	return in, nil
}
