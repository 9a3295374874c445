package consensus

import (
	"github.com/virtualvoting/hashgraph/event"
)

// DivideRounds is Phase A: for each newly-merged event, assign it a
// round number, register any new round, mark the event as able to see
// itself, and register it as a witness if it is the first event its
// creator produced in that round.
func (e *Engine) DivideRounds(events []event.Hash) error {
	for _, hash := range events {
		r, err := e.assignRound(hash)
		if err != nil {
			return err
		}
		e.rounds.GetOrCreate(r)

		if err := e.setEventCanSeeSelf(hash); err != nil {
			return err
		}

		if err := e.maybeAddWitnessToRound(r, hash); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) assignRound(hash event.Hash) (int, error) {
	ev, err := e.store.Get(hash)
	if err != nil {
		return 0, err
	}
	if ev.IsRoot() {
		ev.SetRound(0)
		return 0, nil
	}
	return e.assignNonRootRound(hash, ev)
}

func (e *Engine) assignNonRootRound(hash event.Hash, ev *event.Event) (int, error) {
	canSee, err := e.store.EventsParentsCanSee(hash)
	if err != nil {
		return 0, err
	}
	r, err := e.getParentsRound(ev)
	if err != nil {
		return 0, err
	}
	hits, err := e.getHitsPerEvents(r, canSee)
	if err != nil {
		return 0, err
	}
	sm := e.SuperMajority()
	votes := 0
	for _, v := range hits {
		if v > sm {
			votes += v
		}
	}
	if votes > sm {
		r++
	}
	for k, v := range canSee {
		ev.CanSee[k] = v
	}
	ev.SetRound(r)
	return r, nil
}

func (e *Engine) getParentsRound(ev *event.Event) (int, error) {
	if ev.IsRoot() {
		return 0, ErrNoParents
	}
	selfParent, err := e.store.Get(ev.Parents.Self)
	if err != nil {
		return 0, err
	}
	otherParent, err := e.store.Get(ev.Parents.Other)
	if err != nil {
		return 0, err
	}
	sr, err := selfParent.Round()
	if err != nil {
		return 0, err
	}
	or, err := otherParent.Round()
	if err != nil {
		return 0, err
	}
	if or > sr {
		return or, nil
	}
	return sr, nil
}

func (e *Engine) getHitsPerEvents(r int, canSee map[string]event.Hash) (map[string]int, error) {
	hits := make(map[string]int)
	for _, h := range canSee {
		ev, err := e.store.Get(h)
		if err != nil {
			return nil, err
		}
		evRound, err := ev.Round()
		if err != nil {
			return nil, err
		}
		if evRound != r {
			continue
		}
		for c, sh := range ev.CanSee {
			seen, err := e.store.Get(sh)
			if err != nil {
				return nil, err
			}
			seenRound, err := seen.Round()
			if err != nil {
				return nil, err
			}
			if seenRound == r {
				hits[c]++
			}
		}
	}
	return hits, nil
}

func (e *Engine) setEventCanSeeSelf(hash event.Hash) error {
	ev, err := e.store.Get(hash)
	if err != nil {
		return err
	}
	ev.AddCanSee(ev.Creator, hash)
	return nil
}

func (e *Engine) maybeAddWitnessToRound(r int, hash event.Hash) error {
	ev, err := e.store.Get(hash)
	if err != nil {
		return err
	}
	if r == 0 {
		rnd := e.rounds.GetOrCreate(r)
		rnd.AddWitness(ev.Creator, hash)
		return nil
	}
	selfParentHash, err := ev.SelfParent()
	if err != nil {
		return err
	}
	selfParent, err := e.store.Get(selfParentHash)
	if err != nil {
		return err
	}
	spRound, err := selfParent.Round()
	if err != nil {
		return err
	}
	if r > spRound {
		rnd := e.rounds.GetOrCreate(r)
		rnd.AddWitness(ev.Creator, hash)
	}
	return nil
}
