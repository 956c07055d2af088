package transitradar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(healthyAge time.Duration) (*PositionCache, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewPositionCache(healthyAge)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCacheFirstUpdateCreatesEntityWithoutPrevious(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Update([]Movement{{TripID: "t1", Name: "U2", Direction: "Pankow", Category: "subway", Latitude: 52.50, Longitude: 13.40}})

	all := c.All()
	require.Len(t, all, 1)
	e := all[0]
	assert.Equal(t, "t1", e.TripID)
	assert.Equal(t, "U2", e.Name)
	assert.Equal(t, 52.50, e.Latitude)
	assert.Nil(t, e.Previous)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, int64(1), stats.UpdateCount)
	require.NotNil(t, stats.AgeMS)
	assert.True(t, stats.IsHealthy)
}

func TestCacheSecondUpdateShiftsCurrentToPrevious(t *testing.T) {
	c, now := newTestCache(time.Minute)
	c.Update([]Movement{{TripID: "t1", Latitude: 52.50, Longitude: 13.40}})
	firstSeen := c.All()[0].FirstSeen

	*now = now.Add(20 * time.Second)
	c.Update([]Movement{{TripID: "t1", Latitude: 52.51, Longitude: 13.41}})

	all := c.All()
	require.Len(t, all, 1)
	e := all[0]
	assert.Equal(t, 52.51, e.Latitude)
	assert.Equal(t, 13.41, e.Longitude)
	require.NotNil(t, e.Previous)
	assert.Equal(t, 52.50, e.Previous.Latitude)
	assert.Equal(t, 13.40, e.Previous.Longitude)
	assert.Equal(t, firstSeen, e.FirstSeen, "firstSeenAt survives updates")
	assert.Equal(t, int64(2), c.Stats().UpdateCount)
}

func TestCachePreviousReflectsImmediatelyPrecedingUpdate(t *testing.T) {
	c, now := newTestCache(time.Minute)
	c.Update([]Movement{{TripID: "t1", Latitude: 1, Longitude: 1}})
	*now = now.Add(time.Second)
	c.Update([]Movement{{TripID: "t1", Latitude: 2, Longitude: 2}})
	*now = now.Add(time.Second)
	c.Update([]Movement{{TripID: "t1", Latitude: 3, Longitude: 3}})

	e := c.All()[0]
	assert.Equal(t, 3.0, e.Latitude)
	require.NotNil(t, e.Previous)
	assert.Equal(t, 2.0, e.Previous.Latitude, "previous is the immediately preceding sample, never older")
}

func TestCacheEmptyBatchIsStalenessGuard(t *testing.T) {
	c, now := newTestCache(time.Minute)
	c.Update([]Movement{
		{TripID: "t1", Latitude: 52.50, Longitude: 13.40},
		{TripID: "t2", Latitude: 52.51, Longitude: 13.41},
	})
	before := c.Stats()

	*now = now.Add(10 * time.Second)
	c.Update(nil)
	c.Update([]Movement{})

	stats := c.Stats()
	assert.Equal(t, 2, stats.Count, "entities survive empty batches")
	assert.Equal(t, before.UpdateCount, stats.UpdateCount)
	assert.Equal(t, *before.LastUpdatedAt, *stats.LastUpdatedAt)
	assert.Equal(t, 2, c.ConsecutiveEmpty())
	require.NotNil(t, stats.AgeMS)
	assert.Equal(t, int64(10000), *stats.AgeMS, "age keeps growing while the feed is quiet")
}

func TestCacheNonEmptyBatchResetsConsecutiveEmpty(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Update(nil)
	c.Update(nil)
	assert.Equal(t, 2, c.ConsecutiveEmpty())
	c.Update([]Movement{{TripID: "t1"}})
	assert.Equal(t, 0, c.ConsecutiveEmpty())
}

func TestCacheUpdateIsFullSwap(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Update([]Movement{{TripID: "t1"}, {TripID: "t2"}})
	c.Update([]Movement{{TripID: "t2"}, {TripID: "t3"}})

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "t2", all[0].TripID)
	assert.Equal(t, "t3", all[1].TripID)
	assert.NotNil(t, all[0].Previous, "t2 carried over its previous sample")
	assert.Nil(t, all[1].Previous, "t3 is new")
}

func TestCacheHealthFlagFlipsPastThreshold(t *testing.T) {
	c, now := newTestCache(time.Minute)
	c.Update([]Movement{{TripID: "t1"}})
	assert.True(t, c.Stats().IsHealthy)

	*now = now.Add(59 * time.Second)
	assert.True(t, c.Stats().IsHealthy)

	*now = now.Add(2 * time.Second)
	stats := c.Stats()
	assert.False(t, stats.IsHealthy)
	assert.Equal(t, 1, stats.Count, "stale data is still served")
}

func TestCacheStatsBeforeFirstUpdate(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	stats := c.Stats()
	assert.Equal(t, 0, stats.Count)
	assert.Nil(t, stats.LastUpdatedAt)
	assert.Nil(t, stats.AgeMS)
	assert.False(t, stats.IsHealthy)
}

func TestCacheReset(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Update([]Movement{{TripID: "t1"}})
	c.Reset()
	stats := c.Stats()
	assert.Equal(t, 0, stats.Count)
	assert.Nil(t, stats.LastUpdatedAt)
	assert.Equal(t, int64(0), stats.UpdateCount)
}
