package consensus

import (
	"github.com/virtualvoting/hashgraph/event"
)

// FindOrder is Phase C: for each round that newly reached consensus,
// compute its unique famous witnesses and decide, for every pending
// event, whether it is now round-received — i.e. an ancestor of every
// unique famous witness of that round. Received events are assigned a
// consensus timestamp and dropped from the pending set.
func (e *Engine) FindOrder(newConsensus []int) error {
	for _, r := range newConsensus {
		ufw, err := e.getUniqueFamousWitnesses(r)
		if err != nil {
			return err
		}

		e.mu.Lock()
		pending := make([]event.Hash, 0, len(e.pending))
		for h := range e.pending {
			pending = append(pending, h)
		}
		e.mu.Unlock()

		for _, eh := range pending {
			received, err := e.isRoundReceived(ufw, eh)
			if err != nil {
				return err
			}
			if !received {
				continue
			}
			if err := e.setReceivedInformation(eh, r, ufw); err != nil {
				return err
			}
			e.mu.Lock()
			delete(e.pending, eh)
			e.toEmit = append(e.toEmit, eh)
			e.mu.Unlock()
		}
	}
	return nil
}

func (e *Engine) getUniqueFamousWitnesses(r int) (map[event.Hash]bool, error) {
	famous, err := e.getFamousWitnesses(r)
	if err != nil {
		return nil, err
	}
	for w := range famous {
		for w1 := range famous {
			if w == w1 {
				continue
			}
			ew, err := e.store.Get(w)
			if err != nil {
				return nil, err
			}
			ew1, err := e.store.Get(w1)
			if err != nil {
				return nil, err
			}
			if ew.Parents == ew1.Parents {
				delete(famous, w)
			}
		}
	}
	return famous, nil
}

func (e *Engine) getFamousWitnesses(r int) (map[event.Hash]bool, error) {
	rnd, ok := e.rounds.Get(r)
	if !ok {
		return map[event.Hash]bool{}, nil
	}
	out := make(map[event.Hash]bool)
	for _, h := range rnd.Witnesses() {
		ev, err := e.store.Get(h)
		if err != nil {
			return nil, err
		}
		if ev.IsFamous() {
			out[h] = true
		}
	}
	return out, nil
}

func (e *Engine) isRoundReceived(ufw map[event.Hash]bool, eh event.Hash) (bool, error) {
	for h := range ufw {
		ancestors, err := e.store.Ancestors(h)
		if err != nil {
			return false, err
		}
		if !containsHash(ancestors, eh) {
			return false, nil
		}
	}
	return true, nil
}

func containsHash(hashes []event.Hash, h event.Hash) bool {
	for _, x := range hashes {
		if x == h {
			return true
		}
	}
	return false
}

func (e *Engine) setReceivedInformation(hash event.Hash, r int, ufw map[event.Hash]bool) error {
	deciders, err := e.getTimestampDeciders(hash, ufw)
	if err != nil {
		return err
	}
	var sum uint64
	for _, d := range deciders {
		ev, err := e.store.Get(d)
		if err != nil {
			return err
		}
		ts, err := ev.Timestamp()
		if err != nil {
			return err
		}
		sum += ts
	}
	var newTime uint64
	if len(deciders) > 0 {
		newTime = sum / uint64(len(deciders))
	}
	ev, err := e.store.Get(hash)
	if err != nil {
		return err
	}
	ev.SetTimestamp(newTime)
	ev.SetRoundReceived(r)
	return nil
}

func (e *Engine) getTimestampDeciders(hash event.Hash, ufw map[event.Hash]bool) ([]event.Hash, error) {
	seen := make(map[event.Hash]bool)
	var result []event.Hash
	for w := range ufw {
		selfChain, err := e.store.SelfAncestors(w)
		if err != nil {
			return nil, err
		}
		for _, sa := range selfChain {
			ancestors, err := e.store.Ancestors(sa)
			if err != nil {
				return nil, err
			}
			ev, err := e.store.Get(sa)
			if err != nil {
				return nil, err
			}
			if containsHash(ancestors, hash) && !ev.IsSelfParent(hash) {
				if !seen[sa] {
					seen[sa] = true
					result = append(result, sa)
				}
			}
		}
	}
	return result, nil
}
