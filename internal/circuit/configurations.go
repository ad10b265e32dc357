package circuit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTopology is returned for an identifier outside A-R.
	ErrUnknownTopology = errors.New("unknown circuit topology")
	// ErrNotImplemented is returned for a registered topology that has no stage network yet.
	ErrNotImplemented = errors.New("circuit topology not implemented")
)

// Topology is one plant arrangement of mixer-settlers.
// Stage counts follow the naming convention: Ex extraction in series, Px extraction in
// parallel with the series train, S stripping.
type Topology struct {
	ID         string
	Name       string
	Extraction int
	Parallel   int
	Stripping  int

	build func(Topology, options) Network
}

// Implemented reports whether a stage network exists for the topology.
func (t Topology) Implemented() bool {
	return t.build != nil
}

// Topologies lists every plant arrangement the circuit layer knows by name.
var Topologies = []Topology{
	{ID: "A", Name: "Series 2Ex1S", Extraction: 2, Stripping: 1, build: newSeries2Ex1S},
	{ID: "B", Name: "Series 2Ex2S", Extraction: 2, Stripping: 2},
	{ID: "C", Name: "Series 3Ex1S", Extraction: 3, Stripping: 1},
	{ID: "D", Name: "Series 3Ex2S", Extraction: 3, Stripping: 2},
	{ID: "E", Name: "Series parallel 2Ex1Px1S", Extraction: 2, Parallel: 1, Stripping: 1},
	{ID: "F", Name: "Series parallel 2Ex1Px2S", Extraction: 2, Parallel: 1, Stripping: 2},
	{ID: "G", Name: "Optimum series parallel 1Ex1Px1Ex1S", Extraction: 2, Parallel: 1, Stripping: 1},
	{ID: "H", Name: "Optimum series parallel 1Ex1Px1Ex2S", Extraction: 2, Parallel: 1, Stripping: 2},
	{ID: "I", Name: "Triple parallel 1Ex1Px1Px1S", Extraction: 1, Parallel: 2, Stripping: 1},
	{ID: "J", Name: "Triple parallel 1Ex1Px1Px2S", Extraction: 1, Parallel: 2, Stripping: 2},
	{ID: "K", Name: "Interlaced 1Ex1Px1Ex1Px1S", Extraction: 2, Parallel: 2, Stripping: 1},
	{ID: "L", Name: "Interlaced 1Ex1Px1Ex1Px2S", Extraction: 2, Parallel: 2, Stripping: 2},
	{ID: "M", Name: "Double series parallel 2Ex2Px1S", Extraction: 2, Parallel: 2, Stripping: 1},
	{ID: "N", Name: "Double series parallel 2Ex2Px2S", Extraction: 2, Parallel: 2, Stripping: 2},
	{ID: "O", Name: "Optimum triple parallel 1Ex1Px1Px1Ex1S", Extraction: 2, Parallel: 2, Stripping: 1},
	{ID: "P", Name: "Optimum triple parallel 1Ex1Px1Px1Ex2S", Extraction: 2, Parallel: 2, Stripping: 2},
	{ID: "Q", Name: "Organic by pass 2Ex2Px1S", Extraction: 2, Parallel: 2, Stripping: 1},
	{ID: "R", Name: "Organic by pass 2Ex2Px2S", Extraction: 2, Parallel: 2, Stripping: 2},
}

// DefaultTopology is the configuration used when none is requested.
const DefaultTopology = "A"

// Lookup finds a topology by identifier, case-insensitively.
func Lookup(id string) (Topology, error) {
	key := strings.ToUpper(strings.TrimSpace(id))
	for _, t := range Topologies {
		if t.ID == key {
			return t, nil
		}
	}
	return Topology{}, fmt.Errorf("%w: %q", ErrUnknownTopology, id)
}

// New builds the stage network registered under id.
func New(id string, opts ...Option) (Network, error) {
	t, err := Lookup(id)
	if err != nil {
		return nil, err
	}
	if !t.Implemented() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotImplemented, t.ID, t.Name)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return t.build(t, o), nil
}
