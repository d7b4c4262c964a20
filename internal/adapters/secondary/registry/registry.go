package registry

import (
	"hash/fnv"
	"sync"

	"github.com/jupiterclapton/cercle/internal/core/ports"
)

// shardCount : puissance de 2 pour que le modulo soit un masque.
const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	conns map[string]map[string]ports.Connection // userID -> connID -> conn
}

// Sharded est le registre de connexions en mémoire, découpé en buckets
// verrouillés indépendamment (hash de l'userID) : pas de verrou global qui
// plombe la latence du fan-out quand beaucoup de sockets vivent en même
// temps. Purement éphémère : droppé au restart, reconstruit à la reconnexion.
type Sharded struct {
	shards [shardCount]*shard
}

func NewSharded() *Sharded {
	r := &Sharded{}
	for i := range r.shards {
		r.shards[i] = &shard{conns: make(map[string]map[string]ports.Connection)}
	}
	return r
}

func (r *Sharded) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return r.shards[h.Sum32()&(shardCount-1)]
}

func (r *Sharded) Register(userID, connID string, conn ports.Connection) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.conns[userID]
	if !ok {
		m = make(map[string]ports.Connection)
		s.conns[userID] = m
	}
	m[connID] = conn
}

// Unregister sur une entrée absente est un no-op : le disconnect peut gagner
// la course contre le register de la même connexion.
func (r *Sharded) Unregister(userID, connID string) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.conns[userID]
	if !ok {
		return
	}
	delete(m, connID)
	if len(m) == 0 {
		// pas de set vide résiduel dans la map
		delete(s.conns, userID)
	}
}

// ConnectionsFor rend un snapshot : le bus itère dessus pendant qu'un
// disconnect concurrent mute le shard.
func (r *Sharded) ConnectionsFor(userID string) []ports.Connection {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.conns[userID]
	if !ok {
		return nil
	}
	out := make([]ports.Connection, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// HasUser sert aux checks de présence (et aux tests).
func (r *Sharded) HasUser(userID string) bool {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conns[userID]
	return ok
}
