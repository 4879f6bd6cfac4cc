package network

import (
	"github.com/paulmach/orb"
)

type StationID int

type Station struct {
	ID       StationID
	Name     string
	Position orb.Point

	// neighbor station -> index into Network.bundles
	neighbors map[StationID]int
}

// Neighbors returns the number of stations this station shares a bundle with.
func (s *Station) Neighbors() int { return len(s.neighbors) }

type pair struct{ lo, hi StationID }

func pairOf(a, b StationID) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// Network owns every station and every bundle. Bundles live in one arena and
// both endpoint stations refer to them by index.
type Network struct {
	stations   []*Station
	byPosition map[orb.Point]StationID
	bundles    []*Bundle
	byPair     map[pair]int
}

func NewNetwork() *Network {
	return &Network{
		byPosition: make(map[orb.Point]StationID),
		byPair:     make(map[pair]int),
	}
}

// Register adds a station at position and returns its id. Registering the same
// position twice returns the first id; the first name wins.
func (n *Network) Register(position orb.Point, name string) StationID {
	if id, ok := n.byPosition[position]; ok {
		return id
	}
	id := StationID(len(n.stations))
	n.stations = append(n.stations, &Station{
		ID:        id,
		Name:      name,
		Position:  position,
		neighbors: make(map[StationID]int),
	})
	n.byPosition[position] = id
	return id
}

func (n *Network) Station(id StationID) *Station {
	if id < 0 || int(id) >= len(n.stations) {
		return nil
	}
	return n.stations[id]
}

func (n *Network) Stations() []*Station { return n.stations }

func (n *Network) BundleCount() int { return len(n.bundles) }

// Bundle returns the bundle between a and b, in either order.
func (n *Network) Bundle(a, b StationID) (*Bundle, bool) {
	i, ok := n.byPair[pairOf(a, b)]
	if !ok {
		return nil, false
	}
	return n.bundles[i], true
}

// TrackTo returns the lane for key in the bundle between from and to, creating
// the bundle on first use. The first direction seen fixes the bundle's
// orthogonal vector; callers must pass directions along the same corridor.
func (n *Network) TrackTo(from, to StationID, direction orb.Point, key LaneKey) Track {
	a, b := n.stations[from], n.stations[to]
	i, ok := a.neighbors[to]
	if !ok {
		i = len(n.bundles)
		n.bundles = append(n.bundles, newBundle(direction))
		n.byPair[pairOf(from, to)] = i
		a.neighbors[to] = i
		b.neighbors[from] = i
	}
	return n.bundles[i].FetchTrack(direction, key)
}
