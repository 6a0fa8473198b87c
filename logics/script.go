// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logics

import (
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"modernc.org/quickjs"
)

// ScoreScript rescores recommendations with a JavaScript expression over entry, budget and
// score, e.g. "entry.ram >= 8 ? score + 0.1 : score". Every call runs in a fresh VM, so a
// script may be shared by concurrent requests.
type ScoreScript struct {
	program string
}

func NewScoreScript(script string) (*ScoreScript, error) {
	s := &ScoreScript{
		program: fmt.Sprintf("JSON.stringify(JSON.parse(input).map(([entry, budget, score]) => (%s)))", script),
	}
	// syntax errors are reported even without candidates
	if _, err := s.Score(nil, 0); err != nil {
		return nil, errors.Annotatef(err, "compile score script")
	}
	return s, nil
}

// Score returns the new score of every candidate.
func (s *ScoreScript) Score(candidates []Recommendation, budget float64) (scores []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			err, ok = r.(error)
			if !ok {
				err = errors.Errorf("%v", r)
			}
		}
	}()

	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer vm.Close()
	input, err := json.Marshal(lo.Map(candidates, func(c Recommendation, _ int) []any {
		return []any{c, budget, c.Score}
	}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	inputKey, err := vm.NewAtom("input")
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = vm.GlobalObject().SetProperty(inputKey, string(input)); err != nil {
		return nil, errors.Trace(err)
	}
	result, err := vm.Eval(s.program, quickjs.EvalGlobal)
	if err != nil {
		return nil, errors.Trace(err)
	}
	text, ok := result.(string)
	if !ok {
		return nil, errors.New("score script must return numbers")
	}
	var values []*float64
	if err = json.Unmarshal([]byte(text), &values); err != nil {
		return nil, errors.Trace(err)
	}
	if len(values) != len(candidates) {
		return nil, errors.Errorf("score script returned %d scores for %d candidates", len(values), len(candidates))
	}
	scores = make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			return nil, errors.NotValidf("score of entry %d", candidates[i].Id)
		}
		scores[i] = *v
	}
	return scores, nil
}
