package transitradar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMovementsFlattens(t *testing.T) {
	tiles := [][]Movement{
		{{TripID: "a"}, {TripID: "b"}},
		nil,
		{{TripID: "c"}},
	}
	out := AggregateMovements(tiles)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].TripID)
	assert.Equal(t, "c", out[2].TripID)
}

func TestAggregateMovementsDropsDuplicateTrips(t *testing.T) {
	// a vehicle near a shared tile edge is reported by both tiles
	dup := Movement{TripID: "t2", Name: "S7", Latitude: 52.50, Longitude: 13.40}
	tiles := [][]Movement{
		{{TripID: "t1"}, dup},
		{dup, {TripID: "t3"}},
	}
	out := AggregateMovements(tiles)
	require.Len(t, out, 3)

	count := 0
	for _, m := range out {
		if m.TripID == "t2" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAggregateMovementsKeepsFirstOccurrence(t *testing.T) {
	tiles := [][]Movement{
		{{TripID: "t1", Name: "from-tile-0"}},
		{{TripID: "t1", Name: "from-tile-1"}},
	}
	out := AggregateMovements(tiles)
	require.Len(t, out, 1)
	assert.Equal(t, "from-tile-0", out[0].Name, "tile configuration order decides")
}

func TestAggregateMovementsEmptyInput(t *testing.T) {
	assert.Empty(t, AggregateMovements(nil))
	assert.Empty(t, AggregateMovements([][]Movement{nil, {}}))
}
