package scenario

// IDPool tracks concrete agent ids in use and mints new ones.
type IDPool struct {
	used map[int]struct{}
	max  int
}

// NewIDPool returns a pool holding ids.
func NewIDPool(ids ...int) *IDPool {
	p := &IDPool{used: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		p.Add(id)
	}
	return p
}

// Add marks id as used.
func (p *IDPool) Add(id int) {
	if len(p.used) == 0 || id > p.max {
		p.max = id
	}
	p.used[id] = struct{}{}
}

// Contains reports whether id is in use.
func (p *IDPool) Contains(id int) bool {
	_, ok := p.used[id]
	return ok
}

// Len returns the number of ids in use.
func (p *IDPool) Len() int { return len(p.used) }

// Allocate returns max+1 (1 for an empty pool) and adds it to the pool, so
// consecutive calls never repeat.
func (p *IDPool) Allocate() int {
	next := 1
	if len(p.used) > 0 {
		next = p.max + 1
	}
	p.Add(next)
	return next
}

// CollectIntegerIDs returns a pool of every concrete agent id in s.
// Placeholders are ignored.
func CollectIntegerIDs(s *Scenario) *IDPool {
	p := NewIDPool()
	for _, a := range s.Agents {
		if v, ok := a.ID.Value(); ok {
			p.Add(v)
		}
	}
	return p
}
