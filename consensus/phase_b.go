package consensus

import (
	"sort"

	"github.com/virtualvoting/hashgraph/event"
)

type roundWitness struct {
	round int
	hash  event.Hash
}

// DecideFame is Phase B: virtual voting. Every witness in an
// undecided round votes on every still-undetermined witness in an
// earlier round; once a vote achieves a strict super-majority the
// witness's fame is recorded. Ties beyond CoinRoundPeriod rounds fall
// back to a coin flip derived from the voting witness's own
// signature. Returns the set of rounds that newly reached consensus
// this call.
func (e *Engine) DecideFame() ([]int, error) {
	famousEvents := make(map[event.Hash]bool)
	roundsDone := make(map[int]bool)
	superMajority := e.SuperMajority()

	voters, err := e.getVoters()
	if err != nil {
		return nil, err
	}

	for _, v := range voters {
		r, veh := v.round, v.hash
		witnesses, err := e.getRoundWitnesses(r, veh)
		if err != nil {
			return nil, err
		}
		undetermined, err := e.getUndeterminedEvents(r)
		if err != nil {
			return nil, err
		}
		for _, u := range undetermined {
			ur, eh := u.round, u.hash
			if r-ur == 1 {
				e.vote(veh, eh, witnesses[eh])
				continue
			}
			vote, stake, err := e.getVote(witnesses, eh)
			if err != nil {
				return nil, err
			}
			if (r-ur)%CoinRoundPeriod != 1 {
				if stake > superMajority {
					famousEvents[eh] = vote
					roundsDone[ur] = true
				} else {
					e.vote(veh, eh, vote)
				}
			} else {
				if stake > superMajority {
					e.vote(veh, eh, vote)
				} else {
					voterEvent, err := e.store.Get(veh)
					if err != nil {
						return nil, err
					}
					sig, err := voterEvent.Signature()
					if err != nil {
						return nil, err
					}
					newVote := len(sig) > 0 && sig[0] != 0
					e.vote(veh, eh, newVote)
				}
			}
		}
	}

	if err := e.updateFamousEvents(famousEvents); err != nil {
		return nil, err
	}

	var newConsensus []int
	for r := range roundsDone {
		allFamous, err := e.areAllWitnessesFamous(r)
		if err != nil {
			return nil, err
		}
		if allFamous {
			newConsensus = append(newConsensus, r)
		}
	}
	sort.Ints(newConsensus)

	e.mu.Lock()
	for _, r := range newConsensus {
		if !e.consensus[r] {
			e.consensus[r] = true
			if r > e.maxConsensus {
				e.maxConsensus = r
			}
		}
	}
	e.mu.Unlock()

	return newConsensus, nil
}

func (e *Engine) vote(voter, ev event.Hash, v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.votes[voteKey{voter: voter, event: ev}] = v
}

func (e *Engine) updateFamousEvents(famous map[event.Hash]bool) error {
	for h, v := range famous {
		ev, err := e.store.Get(h)
		if err != nil {
			return err
		}
		ev.SetFamous(v)
	}
	return nil
}

func (e *Engine) getNextConsensus() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxConsensus + 1
}

func (e *Engine) maxRoundID() int {
	n := e.rounds.Len()
	if n == 0 {
		return 0
	}
	return n - 1
}

func (e *Engine) getVoters() ([]roundWitness, error) {
	next := e.getNextConsensus()
	maxR := e.maxRoundID()
	var voters []roundWitness
	for r := next; r < maxR; r++ {
		rnd, ok := e.rounds.Get(r)
		if !ok {
			continue
		}
		for _, h := range rnd.Witnesses() {
			voters = append(voters, roundWitness{round: r, hash: h})
		}
	}
	return voters, nil
}

func (e *Engine) getUndeterminedEvents(upto int) ([]roundWitness, error) {
	next := e.getNextConsensus()
	var out []roundWitness
	e.mu.Lock()
	done := make(map[int]bool, len(e.consensus))
	for k, v := range e.consensus {
		done[k] = v
	}
	e.mu.Unlock()
	for r := next; r < upto; r++ {
		if done[r] {
			continue
		}
		rnd, ok := e.rounds.Get(r)
		if !ok {
			continue
		}
		for _, h := range rnd.Witnesses() {
			ev, err := e.store.Get(h)
			if err != nil {
				return nil, err
			}
			if ev.IsUndefined() {
				out = append(out, roundWitness{round: r, hash: h})
			}
		}
	}
	return out, nil
}

func (e *Engine) getRoundWitnesses(r int, hash event.Hash) (map[event.Hash]bool, error) {
	if r == 0 {
		return map[event.Hash]bool{}, nil
	}
	hits, err := e.getRoundHits(r, hash)
	if err != nil {
		return nil, err
	}
	prevRound, ok := e.rounds.Get(r - 1)
	if !ok {
		return map[event.Hash]bool{}, nil
	}
	sm := e.SuperMajority()
	witnesses := make(map[event.Hash]bool)
	for creator, count := range hits {
		if count > sm {
			if h, ok := prevRound.WitnessesMap()[creator]; ok {
				witnesses[h] = true
			}
		}
	}
	return witnesses, nil
}

func (e *Engine) getRoundHits(r int, hash event.Hash) (map[string]int, error) {
	if r == 0 {
		return map[string]int{}, nil
	}
	ev, err := e.store.Get(hash)
	if err != nil {
		return nil, err
	}
	prevRound := r - 1
	hits := make(map[string]int)
	for creator, h := range ev.CanSee {
		possibleWitness, err := e.store.Get(h)
		if err != nil {
			return nil, err
		}
		pwRound, err := possibleWitness.Round()
		if err != nil {
			return nil, err
		}
		if pwRound != prevRound {
			continue
		}
		for _, sh := range possibleWitness.CanSee {
			seen, err := e.store.Get(sh)
			if err != nil {
				return nil, err
			}
			sr, err := seen.Round()
			if err != nil {
				return nil, err
			}
			if sr == prevRound {
				hits[creator]++
			}
		}
	}
	return hits, nil
}

func (e *Engine) getVote(witnesses map[event.Hash]bool, eh event.Hash) (bool, int, error) {
	total, err := e.getVotesForEvent(witnesses, eh)
	if err != nil {
		return false, 0, err
	}
	if total > len(witnesses)/2 {
		return true, total, nil
	}
	return false, len(witnesses) - total, nil
}

func (e *Engine) getVotesForEvent(witnesses map[event.Hash]bool, eh event.Hash) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for w := range witnesses {
		if e.votes[voteKey{voter: w, event: eh}] {
			total++
		}
	}
	return total, nil
}

func (e *Engine) areAllWitnessesFamous(r int) (bool, error) {
	rnd, ok := e.rounds.Get(r)
	if !ok {
		return false, nil
	}
	for _, h := range rnd.Witnesses() {
		ev, err := e.store.Get(h)
		if err != nil {
			return false, err
		}
		if !ev.IsFamous() {
			return false, nil
		}
	}
	return true, nil
}
