package catalog

import "time"

// idGen hands out creation-timestamp ids in milliseconds, bumping past the
// last issued id when the clock stalls or runs backwards. Callers hold the
// store lock.
type idGen struct {
	now  func() time.Time
	last int64
}

func (g *idGen) next() int64 {
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

func (g *idGen) observe(products []Product) {
	for _, p := range products {
		if p.ID > g.last {
			g.last = p.ID
		}
	}
}
