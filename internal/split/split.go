package split

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
)

// #region types
// Split is a train/test partition of a table by session.
type Split struct {
	Train         *dataset.Table
	Test          *dataset.Table
	TrainSessions []string
	TestSessions  []string
	Seed          int64 // seed actually used, for reproducing the split
}

// #endregion types

// #region by-session
// BySession assigns whole sessions to train or test. Sessions are shuffled
// with a PRNG seeded from seed (nil picks a time-based seed) and the first
// round(fraction*n) of them go to train, clamped so both sides keep at
// least one session. The fraction is therefore over sessions, not rows.
func BySession(t *dataset.Table, sessionCol string, fraction float64, seed *int64) (Split, error) {
	if t == nil {
		return Split{}, fmt.Errorf("%w: nil table", apperr.ErrConfig)
	}
	if t.Index(sessionCol) < 0 {
		return Split{}, fmt.Errorf("%w: session column %q not found", apperr.ErrConfig, sessionCol)
	}
	if !(fraction > 0 && fraction < 1) {
		return Split{}, fmt.Errorf("%w: fraction %v must be in (0,1)", apperr.ErrConfig, fraction)
	}

	sessions, err := t.Sessions(sessionCol)
	if err != nil {
		return Split{}, err
	}
	n := len(sessions)
	if n < 2 {
		return Split{}, fmt.Errorf("%w: need at least 2 sessions to split, have %d", apperr.ErrConfig, n)
	}

	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	rng := rand.New(rand.NewSource(s))
	order := make([]string, n)
	copy(order, sessions)
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	nTrain := TrainCount(n, fraction)
	keep := make(map[string]bool, nTrain)
	for _, id := range order[:nTrain] {
		keep[id] = true
	}

	// report sessions in first-appearance order rather than shuffle order
	var trainIDs, testIDs []string
	for _, id := range sessions {
		if keep[id] {
			trainIDs = append(trainIDs, id)
		} else {
			testIDs = append(testIDs, id)
		}
	}

	train, err := t.SelectSessions(sessionCol, keep)
	if err != nil {
		return Split{}, err
	}
	drop := make(map[string]bool, len(testIDs))
	for _, id := range testIDs {
		drop[id] = true
	}
	test, err := t.SelectSessions(sessionCol, drop)
	if err != nil {
		return Split{}, err
	}

	return Split{
		Train:         train,
		Test:          test,
		TrainSessions: trainIDs,
		TestSessions:  testIDs,
		Seed:          s,
	}, nil
}

// TrainCount returns how many of n sessions go to train for fraction.
func TrainCount(n int, fraction float64) int {
	k := int(math.Round(fraction * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n-1 {
		k = n - 1
	}
	return k
}

// #endregion by-session
