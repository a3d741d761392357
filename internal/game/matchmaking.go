package game

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sketchparty/sketchparty-backend/internal"
	"github.com/sketchparty/sketchparty-backend/internal/geo"
)

// MatchQueue holds searchers waiting for a nearby opponent. It is
// serialized by its own mutex, independent of every room lock: pairing
// touches two connections that belong to no room yet. Entries and room
// membership are disjoint — a paired or cancelled entry is gone before
// anything else observes it.
type MatchQueue struct {
	mu      sync.Mutex
	entries []*internal.MatchmakingEntry

	radiusKm  float64
	freshness time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewMatchQueue(cfg Config, log zerolog.Logger) *MatchQueue {
	cfg = cfg.withDefaults()
	return &MatchQueue{
		radiusKm:  cfg.NearbyRadiusKm,
		freshness: cfg.QueueFreshness,
		now:       time.Now,
		log:       log,
	}
}

// Enqueue either pairs the caller with the best in-radius candidate —
// removing both entries atomically — or inserts the caller. The best
// candidate is the nearest; exact distance ties go to the earliest
// enqueued. Stale entries are purged during the scan and never matched.
func (q *MatchQueue) Enqueue(e *internal.MatchmakingEntry) (peer *internal.MatchmakingEntry, distanceKm float64, matched bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-q.freshness)
	fresh := q.entries[:0]
	bestIdx := -1
	bestDist := math.MaxFloat64

	for _, entry := range q.entries {
		if entry.EnqueuedAt.Before(cutoff) {
			q.log.Debug().Str("conn", entry.ConnID).Msg("purged stale matchmaking entry")
			continue
		}
		if entry.ConnID == e.ConnID {
			// Re-enqueue replaces the old position.
			continue
		}
		fresh = append(fresh, entry)

		d := geo.DistanceKm(e.Lat, e.Lng, entry.Lat, entry.Lng)
		if d > q.radiusKm {
			continue
		}
		idx := len(fresh) - 1
		if d < bestDist || (d == bestDist && bestIdx >= 0 && entry.EnqueuedAt.Before(fresh[bestIdx].EnqueuedAt)) {
			bestDist = d
			bestIdx = idx
		}
	}
	q.entries = fresh

	if bestIdx < 0 {
		q.entries = append(q.entries, e)
		return nil, 0, false
	}

	peer = q.entries[bestIdx]
	q.entries = append(q.entries[:bestIdx], q.entries[bestIdx+1:]...)
	return peer, bestDist, true
}

// Cancel removes a searcher's entry unconditionally. Used for explicit
// cancellation and for connection loss.
func (q *MatchQueue) Cancel(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, entry := range q.entries {
		if entry.ConnID == connID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports the waiting searcher count.
func (q *MatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// HandleFindMatch validates coordinates, then either answers `searching`
// or pairs the caller into a fresh two-player room. The earlier-enqueued
// searcher becomes host.
func (g *Game) HandleFindMatch(connID, displayName string, conn internal.Conn, req internal.FindMatchRequest) error {
	if req.Lat == nil || req.Lng == nil || !geo.ValidCoordinate(*req.Lat, *req.Lng) {
		return internal.ErrInvalidLocation
	}

	entry := &internal.MatchmakingEntry{
		ConnID:      connID,
		DisplayName: displayName,
		Lat:         *req.Lat,
		Lng:         *req.Lng,
		EnqueuedAt:  g.now(),
		Conn:        conn,
	}

	peer, dist, matched := g.queue.Enqueue(entry)
	if !matched {
		g.send(conn, "searching", internal.RoomRef{})
		return nil
	}

	// Pair into a fresh room; the earlier-enqueued searcher is host.
	host := &internal.Player{ConnID: peer.ConnID, DisplayName: peer.DisplayName, Conn: peer.Conn}
	room, err := g.reg.CreateRoom("", host)
	if err != nil {
		// Generated codes never collide with active rooms, so this only
		// happens if the registry was torn down mid-flight.
		return err
	}
	guest := &internal.Player{ConnID: connID, DisplayName: displayName, Conn: conn}
	if _, err := g.reg.JoinRoom(room.Code, guest); err != nil {
		return err
	}

	rounded := math.Round(dist*10) / 10
	g.log.Info().Str("room", room.Code).Str("host", peer.DisplayName).
		Str("guest", displayName).Float64("km", rounded).Msg("match found")

	g.send(peer.Conn, "match_found", internal.MatchFoundData{
		RoomCode:   room.Code,
		PeerName:   displayName,
		DistanceKm: rounded,
	})
	g.send(conn, "match_found", internal.MatchFoundData{
		RoomCode:   room.Code,
		PeerName:   peer.DisplayName,
		DistanceKm: rounded,
	})
	return nil
}

// HandleCancelSearch drops the caller's queue entry, if any.
func (g *Game) HandleCancelSearch(connID string) {
	g.queue.Cancel(connID)
}
