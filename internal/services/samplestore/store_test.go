package samplestore

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepler-congestion-go/internal/models"
	"kepler-congestion-go/internal/timeutil"
)

var t0 = time.Date(2025, time.March, 12, 14, 30, 0, 0, time.UTC)

func newTestStore(maxCameras int, retention time.Duration) *Store {
	return NewStore(maxCameras, retention, timeutil.NewMockClock(t0))
}

func camera(id string) models.Camera {
	return models.Camera{CameraRef: models.CameraRef{ID: id, Name: "Camera " + id}}
}

func sample(id int64, cameraID string, ts time.Time, density float64) models.DensitySample {
	return models.DensitySample{ID: id, CameraID: cameraID, Timestamp: ts, Density: density}
}

func ids(samples []models.DensitySample) []int64 {
	out := make([]int64, len(samples))
	for i, s := range samples {
		out[i] = s.ID
	}
	return out
}

func TestUpsert(t *testing.T) {
	t.Parallel()

	t.Run("registers and refreshes", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(10, time.Hour)

		registered, err := store.Upsert(camera("cam-1"))
		require.NoError(t, err)
		assert.Equal(t, t0, registered.RegisteredAt)

		cutoff := t0.Add(-time.Minute)
		updated, err := store.Upsert(models.Camera{
			CameraRef:     models.CameraRef{ID: "cam-1", Location: "Gate 3"},
			DataValidFrom: &cutoff,
		})
		require.NoError(t, err)
		assert.Equal(t, "Camera cam-1", updated.Name)
		assert.Equal(t, "Gate 3", updated.Location)
		assert.Equal(t, cutoff, *updated.DataValidFrom)
		assert.Equal(t, t0, updated.RegisteredAt)
	})

	t.Run("name defaults to id", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(10, time.Hour)
		registered, err := store.Upsert(models.Camera{CameraRef: models.CameraRef{ID: "cam-9"}})
		require.NoError(t, err)
		assert.Equal(t, "cam-9", registered.Name)
	})

	t.Run("camera limit", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(1, time.Hour)
		_, err := store.Upsert(camera("cam-1"))
		require.NoError(t, err)

		_, err = store.Upsert(camera("cam-2"))
		assert.ErrorIs(t, err, ErrCameraLimit)

		_, err = store.Upsert(camera("cam-1"))
		assert.NoError(t, err)
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()
		_, err := newTestStore(1, time.Hour).Upsert(models.Camera{})
		assert.ErrorIs(t, err, ErrMissingID)
	})
}

func TestAdd(t *testing.T) {
	t.Parallel()

	t.Run("unknown camera", func(t *testing.T) {
		t.Parallel()
		_, err := newTestStore(10, time.Hour).Add(sample(1, "ghost", t0, 0.1))
		assert.ErrorIs(t, err, ErrUnknownCamera)
	})

	t.Run("keeps time order with arrival order on ties", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(10, time.Hour)
		_, err := store.Upsert(camera("cam-1"))
		require.NoError(t, err)

		for _, s := range []models.DensitySample{
			sample(1, "cam-1", t0, 0.1),
			sample(2, "cam-1", t0.Add(-time.Minute), 0.2),
			sample(3, "cam-1", t0, 0.3),
			sample(4, "cam-1", t0.Add(time.Minute), 0.4),
		} {
			added, err := store.Add(s)
			require.NoError(t, err)
			assert.True(t, added)
		}

		assert.Equal(t, []int64{2, 1, 3, 4}, ids(store.History("cam-1", time.Time{})))

		cam, ok := store.Camera("cam-1")
		require.True(t, ok)
		assert.Equal(t, 4, cam.SampleCount)
		assert.Equal(t, t0.Add(time.Minute), cam.LastSampleAt)
	})

	t.Run("duplicates are ignored", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(10, time.Hour)
		_, err := store.Upsert(camera("cam-1"))
		require.NoError(t, err)

		added, err := store.Add(sample(7, "cam-1", t0, 0.1))
		require.NoError(t, err)
		assert.True(t, added)

		added, err = store.Add(sample(7, "cam-1", t0, 0.1))
		require.NoError(t, err)
		assert.False(t, added)

		_, samples := store.Stats()
		assert.Equal(t, 1, samples)
	})

	t.Run("prunes beyond retention", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(10, time.Hour)
		_, err := store.Upsert(camera("cam-1"))
		require.NoError(t, err)

		_, _ = store.Add(sample(1, "cam-1", t0.Add(-2*time.Hour), 0.1))
		_, _ = store.Add(sample(2, "cam-1", t0.Add(-time.Hour), 0.2))
		_, _ = store.Add(sample(3, "cam-1", t0, 0.3))

		assert.Equal(t, []int64{2, 3}, ids(store.History("cam-1", time.Time{})))
	})

	t.Run("id index follows retention", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(10, time.Hour)
		_, err := store.Upsert(camera("cam-1"))
		require.NoError(t, err)

		_, _ = store.Add(sample(1, "cam-1", t0.Add(-2*time.Hour), 0.1))
		_, _ = store.Add(sample(0, "cam-1", t0.Add(-time.Minute), 0.2))
		_, _ = store.Add(sample(0, "cam-1", t0.Add(-time.Minute), 0.2))
		_, _ = store.Add(sample(2, "cam-1", t0, 0.3))

		entry := store.cameras["cam-1"]
		assert.Equal(t, map[int64]struct{}{2: {}}, entry.ids)
		assert.Len(t, entry.samples, 3)

		// a pruned id is no longer a duplicate
		added, err := store.Add(sample(1, "cam-1", t0.Add(-30*time.Minute), 0.1))
		require.NoError(t, err)
		assert.True(t, added)
		assert.Contains(t, entry.ids, int64(1))
	})
}

func TestRecent(t *testing.T) {
	t.Parallel()

	store := newTestStore(10, 24*time.Hour)
	cutoff := t0.Add(-150 * time.Second)
	cam := camera("cam-1")
	cam.DataValidFrom = &cutoff
	_, err := store.Upsert(cam)
	require.NoError(t, err)

	for i := int64(0); i < 5; i++ {
		_, err := store.Add(sample(i+1, "cam-1", t0.Add(-time.Duration(4-i)*time.Minute), 0.1*float64(i)))
		require.NoError(t, err)
	}

	// samples 1 and 2 predate the cutoff
	assert.Equal(t, []int64{5, 4, 3}, ids(store.Recent("cam-1", 10)))
	assert.Equal(t, []int64{5, 4}, ids(store.Recent("cam-1", 2)))
	assert.True(t, store.Recent("cam-1", 10).IsNewestFirst())
	assert.Empty(t, store.Recent("cam-1", 0))
	assert.Empty(t, store.Recent("ghost", 5))

	assert.Equal(t, []int64{3, 4, 5}, ids(store.History("cam-1", time.Time{})))
	assert.Equal(t, []int64{4, 5}, ids(store.History("cam-1", t0.Add(-time.Minute))))
}

func TestCamerasSortedByID(t *testing.T) {
	t.Parallel()

	store := newTestStore(10, time.Hour)
	for _, id := range []string{"cam-c", "cam-a", "cam-b"} {
		_, err := store.Upsert(camera(id))
		require.NoError(t, err)
	}

	cameras := store.Cameras()
	require.Len(t, cameras, 3)
	assert.Equal(t, "cam-a", cameras[0].ID)
	assert.Equal(t, "cam-b", cameras[1].ID)
	assert.Equal(t, "cam-c", cameras[2].ID)
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := newTestStore(10, time.Hour)
	_, err := store.Upsert(camera("cam-1"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = store.Add(sample(int64(w*100+i+1), "cam-1", t0.Add(time.Duration(i)*time.Second), 0.1))
				_ = store.Recent("cam-1", 10)
			}
		}(w)
	}
	wg.Wait()

	_, samples := store.Stats()
	assert.Equal(t, 200, samples)
	assert.True(t, store.Recent("cam-1", 200).IsNewestFirst())
}
