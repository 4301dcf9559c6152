// Package samplestore keeps the camera registry and a bounded in-memory
// history of density samples per camera.
package samplestore

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kepler-congestion-go/internal/models"
	"kepler-congestion-go/internal/timeutil"
)

var (
	ErrCameraLimit   = errors.New("camera limit reached")
	ErrUnknownCamera = errors.New("camera not registered")
	ErrMissingID     = errors.New("camera id is required")
)

// Store is safe for concurrent use
type Store struct {
	maxCameras int
	retention  time.Duration
	clock      timeutil.Clock

	cameras map[string]*cameraEntry
	mutex   sync.RWMutex
}

type cameraEntry struct {
	camera models.Camera
	// ascending by timestamp, ties in arrival order
	samples []models.DensitySample
	// non-zero IDs of the retained samples
	ids map[int64]struct{}
}

func NewStore(maxCameras int, retention time.Duration, clock timeutil.Clock) *Store {
	return &Store{
		maxCameras: maxCameras,
		retention:  retention,
		clock:      clock,
		cameras:    make(map[string]*cameraEntry),
	}
}

// Upsert registers a camera or refreshes its name, location and cutoff.
// Empty fields never overwrite known values.
func (s *Store) Upsert(camera models.Camera) (models.Camera, error) {
	if camera.ID == "" {
		return models.Camera{}, ErrMissingID
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.cameras[camera.ID]
	if !exists {
		if s.maxCameras > 0 && len(s.cameras) >= s.maxCameras {
			return models.Camera{}, fmt.Errorf("register %s: %w (%d)", camera.ID, ErrCameraLimit, s.maxCameras)
		}
		camera.RegisteredAt = s.clock.Now()
		camera.LastSampleAt = time.Time{}
		camera.SampleCount = 0
		if camera.Name == "" {
			camera.Name = camera.ID
		}
		s.cameras[camera.ID] = &cameraEntry{camera: camera, ids: make(map[int64]struct{})}

		log.Info().
			Str("camera_id", camera.ID).
			Str("camera_name", camera.Name).
			Int("cameras", len(s.cameras)).
			Msg("Camera registered")
		return camera, nil
	}

	if camera.Name != "" {
		entry.camera.Name = camera.Name
	}
	if camera.Location != "" {
		entry.camera.Location = camera.Location
	}
	if camera.DataValidFrom != nil {
		cutoff := *camera.DataValidFrom
		entry.camera.DataValidFrom = &cutoff
	}
	return entry.camera, nil
}

// Add stores a sample of a registered camera. A sample whose non-zero ID is
// already stored is ignored and reported as not added.
func (s *Store) Add(sample models.DensitySample) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.cameras[sample.CameraID]
	if !ok {
		return false, fmt.Errorf("add sample for %s: %w", sample.CameraID, ErrUnknownCamera)
	}

	if sample.ID != 0 && entry.contains(sample.ID) {
		return false, nil
	}

	idx := sort.Search(len(entry.samples), func(i int) bool {
		return entry.samples[i].Timestamp.After(sample.Timestamp)
	})
	entry.samples = slices.Insert(entry.samples, idx, sample)
	if sample.ID != 0 {
		entry.ids[sample.ID] = struct{}{}
	}
	entry.prune(s.retention)

	entry.camera.SampleCount = len(entry.samples)
	if sample.Timestamp.After(entry.camera.LastSampleAt) {
		entry.camera.LastSampleAt = sample.Timestamp
	}
	return true, nil
}

// Recent returns up to n accepted samples of a camera, newest first
func (s *Store) Recent(cameraID string, n int) models.DensitySeries {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.cameras[cameraID]
	if !ok || n <= 0 {
		return models.DensitySeries{}
	}

	series := make(models.DensitySeries, 0, min(n, len(entry.samples)))
	for i := len(entry.samples) - 1; i >= 0 && len(series) < n; i-- {
		sample := entry.samples[i]
		if !entry.camera.Accepts(sample.Timestamp) {
			break
		}
		series = append(series, sample)
	}
	return series
}

// History returns the accepted samples taken at or after since, oldest first
func (s *Store) History(cameraID string, since time.Time) []models.DensitySample {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.cameras[cameraID]
	if !ok {
		return []models.DensitySample{}
	}

	from := since
	if cutoff := entry.camera.DataValidFrom; cutoff != nil && cutoff.After(from) {
		from = *cutoff
	}
	idx := sort.Search(len(entry.samples), func(i int) bool {
		return !entry.samples[i].Timestamp.Before(from)
	})
	return slices.Clone(entry.samples[idx:])
}

func (s *Store) Camera(cameraID string) (models.Camera, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.cameras[cameraID]
	if !ok {
		return models.Camera{}, false
	}
	return entry.camera, true
}

// Cameras lists the registered cameras ordered by ID
func (s *Store) Cameras() []models.Camera {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cameras := make([]models.Camera, 0, len(s.cameras))
	for _, entry := range s.cameras {
		cameras = append(cameras, entry.camera)
	}
	sort.Slice(cameras, func(i, j int) bool { return cameras[i].ID < cameras[j].ID })
	return cameras
}

// Stats reports the number of cameras and stored samples
func (s *Store) Stats() (cameras, samples int) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, entry := range s.cameras {
		samples += len(entry.samples)
	}
	return len(s.cameras), samples
}

func (e *cameraEntry) contains(id int64) bool {
	_, ok := e.ids[id]
	return ok
}

// prune drops samples older than retention, measured from the newest sample
func (e *cameraEntry) prune(retention time.Duration) {
	if retention <= 0 || len(e.samples) == 0 {
		return
	}
	oldest := e.samples[len(e.samples)-1].Timestamp.Add(-retention)
	idx := sort.Search(len(e.samples), func(i int) bool {
		return !e.samples[i].Timestamp.Before(oldest)
	})
	if idx == 0 {
		return
	}
	for _, sample := range e.samples[:idx] {
		if sample.ID != 0 {
			delete(e.ids, sample.ID)
		}
	}
	e.samples = slices.Delete(e.samples, 0, idx)
}
