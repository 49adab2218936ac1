package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const roomIdLength = 8

// idgen hands out short room ids that stay unique among live rooms. Disposed
// ids become reusable.
type idgen struct {
	ids    map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() *idgen {
	return &idgen{ids: make(map[string]struct{})}
}

func (g *idgen) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:roomIdLength]
		if _, taken := g.ids[id]; taken {
			continue
		}
		g.ids[id] = struct{}{}
		return id
	}
}

func (g *idgen) Dispose(id string) {
	g.locker.Lock()
	delete(g.ids, id)
	g.locker.Unlock()
}
