package store

// Evict ages out records not observed this run. Records in the seen set get
// their MissingCount reset to zero; unseen records have it incremented and
// are dropped once it reaches the threshold. A first-ever run never evicts,
// since nothing has been seen before to compare against.
//
// Transient crawl gaps (pagination jitter hiding a live listing for a run
// or two) therefore survive, while genuinely removed listings age out after
// threshold consecutive absent runs.
func (s *Store) Evict(threshold int) (evicted int) {
	if !s.priorRun {
		return 0
	}

	for link, e := range s.records {
		if _, wasSeen := s.seen[link]; wasSeen {
			if e.rec.MissingCount != 0 {
				e.rec.MissingCount = 0
				s.records[link] = e
			}
			continue
		}

		e.rec.MissingCount++
		if e.rec.MissingCount >= threshold {
			delete(s.records, link)
			evicted++
			continue
		}
		s.records[link] = e
	}

	return evicted
}
