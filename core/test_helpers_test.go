package core

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type memoryStationStore struct {
	mu       sync.Mutex
	stations map[StationKey]Station
}

func newMemoryStationStore() *memoryStationStore {
	return &memoryStationStore{stations: map[StationKey]Station{}}
}

func (s *memoryStationStore) put(station Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations[station.Key] = station
}

func (s *memoryStationStore) get(key StationKey) (Station, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	station, ok := s.stations[key]
	return station, ok
}

func (s *memoryStationStore) FindByKey(_ context.Context, key StationKey) (Station, bool, error) {
	station, ok := s.get(key)
	return station, ok, nil
}

func (s *memoryStationStore) FindRecentImports(_ context.Context, since time.Time) ([]Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Station{}
	for _, station := range s.sortedLocked() {
		for _, photo := range station.Photos {
			if !photo.CreatedAt.Before(since) {
				out = append(out, station)
				break
			}
		}
	}
	return out, nil
}

func (s *memoryStationStore) FindByPhotographer(_ context.Context, photographerID string) ([]Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Station{}
	for _, station := range s.sortedLocked() {
		for _, photo := range station.Photos {
			if photo.Photographer.ID == photographerID {
				out = append(out, station)
				break
			}
		}
	}
	return out, nil
}

func (s *memoryStationStore) CountNearbyCoordinates(_ context.Context, coordinates Coordinates, proximity Proximity) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, station := range s.stations {
		if proximity.Nearby(station.Coordinates, coordinates) {
			count++
		}
	}
	return count, nil
}

func (s *memoryStationStore) Insert(_ context.Context, station Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stations[station.Key]; exists {
		return fmt.Errorf("duplicate station %s", station.Key)
	}
	s.stations[station.Key] = station
	return nil
}

func (s *memoryStationStore) Delete(_ context.Context, key StationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stations, key)
	return nil
}

func (s *memoryStationStore) UpdateActive(_ context.Context, key StationKey, active bool) error {
	return s.mutate(key, func(station *Station) { station.Active = active })
}

func (s *memoryStationStore) UpdateLocation(_ context.Context, key StationKey, coordinates Coordinates) error {
	return s.mutate(key, func(station *Station) { station.Coordinates = coordinates })
}

func (s *memoryStationStore) ChangeTitle(_ context.Context, key StationKey, title string) error {
	return s.mutate(key, func(station *Station) { station.Title = title })
}

func (s *memoryStationStore) MaxZ(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxZ := 0
	for key := range s.stations {
		if !strings.HasPrefix(key.ID, "Z") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(key.ID, "Z")); err == nil && n > maxZ {
			maxZ = n
		}
	}
	return maxZ, nil
}

func (s *memoryStationStore) mutate(key StationKey, fn func(*Station)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	station, ok := s.stations[key]
	if !ok {
		return fmt.Errorf("station %s not found", key)
	}
	fn(&station)
	s.stations[key] = station
	return nil
}

func (s *memoryStationStore) sortedLocked() []Station {
	out := make([]Station, 0, len(s.stations))
	for _, station := range s.stations {
		out = append(out, station)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// memoryPhotoStore keeps photos inside the station records of the station
// store so that FindByKey reflects every photo mutation.
type memoryPhotoStore struct {
	stations *memoryStationStore
	next     int
}

func (p *memoryPhotoStore) Insert(_ context.Context, photo Photo) (string, error) {
	p.stations.mu.Lock()
	defer p.stations.mu.Unlock()
	station, ok := p.stations.stations[photo.StationKey]
	if !ok {
		return "", fmt.Errorf("station %s not found", photo.StationKey)
	}
	p.next++
	photo.ID = fmt.Sprintf("photo-%d", p.next)
	station.Photos = append(station.Photos, photo)
	p.stations.stations[photo.StationKey] = station
	return photo.ID, nil
}

func (p *memoryPhotoStore) Update(_ context.Context, photo Photo) error {
	return p.mutatePhoto(photo.ID, func(existing *Photo) { *existing = photo })
}

func (p *memoryPhotoStore) Delete(_ context.Context, id string) error {
	p.stations.mu.Lock()
	defer p.stations.mu.Unlock()
	for key, station := range p.stations.stations {
		for i, photo := range station.Photos {
			if photo.ID == id {
				station.Photos = append(append([]Photo(nil), station.Photos[:i]...), station.Photos[i+1:]...)
				p.stations.stations[key] = station
				return nil
			}
		}
	}
	return fmt.Errorf("photo %s not found", id)
}

func (p *memoryPhotoStore) SetAllPhotosForStationSecondary(_ context.Context, key StationKey) error {
	p.stations.mu.Lock()
	defer p.stations.mu.Unlock()
	station, ok := p.stations.stations[key]
	if !ok {
		return fmt.Errorf("station %s not found", key)
	}
	photos := append([]Photo(nil), station.Photos...)
	for i := range photos {
		photos[i].Primary = false
	}
	station.Photos = photos
	p.stations.stations[key] = station
	return nil
}

func (p *memoryPhotoStore) SetPrimary(_ context.Context, id string) error {
	return p.mutatePhoto(id, func(photo *Photo) { photo.Primary = true })
}

func (p *memoryPhotoStore) UpdatePhotoOutdated(_ context.Context, id string) error {
	return p.mutatePhoto(id, func(photo *Photo) { photo.Outdated = true })
}

func (p *memoryPhotoStore) mutatePhoto(id string, fn func(*Photo)) error {
	p.stations.mu.Lock()
	defer p.stations.mu.Unlock()
	for key, station := range p.stations.stations {
		photos := append([]Photo(nil), station.Photos...)
		for i := range photos {
			if photos[i].ID == id {
				fn(&photos[i])
				station.Photos = photos
				p.stations.stations[key] = station
				return nil
			}
		}
	}
	return fmt.Errorf("photo %s not found", id)
}

type memoryInboxStore struct {
	mu       sync.Mutex
	next     int
	order    []string
	entries  map[string]InboxEntry
	stations *memoryStationStore
}

func newMemoryInboxStore(stations *memoryStationStore) *memoryInboxStore {
	return &memoryInboxStore{entries: map[string]InboxEntry{}, stations: stations}
}

func (s *memoryInboxStore) get(id string) InboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id]
}

func (s *memoryInboxStore) FindByID(_ context.Context, id string) (InboxEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	return entry, ok, nil
}

func (s *memoryInboxStore) FindPendingInboxEntries(context.Context) ([]InboxEntry, error) {
	return s.filter(func(entry InboxEntry) bool { return !entry.Done }), nil
}

func (s *memoryInboxStore) FindPublicInboxEntries(context.Context) ([]PublicInboxRow, error) {
	pending := s.filter(func(entry InboxEntry) bool { return !entry.Done && !entry.IsProblemReport() })
	rows := make([]PublicInboxRow, 0, len(pending))
	for _, entry := range pending {
		row := PublicInboxRow{
			CountryCode: entry.CountryCode,
			StationID:   entry.StationID,
			Title:       entry.Title,
			Coordinates: entry.Coordinates,
		}
		if s.stations != nil && entry.StationID != "" {
			if station, ok := s.stations.get(entry.StationKey()); ok {
				coords := station.Coordinates
				row.StationTitle = station.Title
				row.StationCoordinates = &coords
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *memoryInboxStore) FindByUser(_ context.Context, photographerID string, includeDone bool) ([]InboxEntry, error) {
	return s.filter(func(entry InboxEntry) bool {
		return entry.PhotographerID == photographerID && (includeDone || !entry.Done)
	}), nil
}

func (s *memoryInboxStore) FindPendingByStation(_ context.Context, key StationKey) ([]InboxEntry, error) {
	return s.filter(func(entry InboxEntry) bool {
		return !entry.Done && entry.StationKey() == key
	}), nil
}

func (s *memoryInboxStore) Insert(_ context.Context, entry InboxEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	entry.ID = fmt.Sprintf("entry-%d", s.next)
	s.entries[entry.ID] = entry
	s.order = append(s.order, entry.ID)
	return entry.ID, nil
}

func (s *memoryInboxStore) Reject(_ context.Context, id string, reason string) error {
	return s.mutate(id, func(entry *InboxEntry) {
		entry.Done = true
		entry.RejectReason = &reason
	})
}

func (s *memoryInboxStore) Done(_ context.Context, id string) error {
	return s.mutate(id, func(entry *InboxEntry) { entry.Done = true })
}

func (s *memoryInboxStore) UpdateCRC32(_ context.Context, id string, crc uint32) error {
	return s.mutate(id, func(entry *InboxEntry) { entry.CRC32 = &crc })
}

func (s *memoryInboxStore) UpdatePhotoID(_ context.Context, id string, photoID string) error {
	return s.mutate(id, func(entry *InboxEntry) { entry.PhotoID = photoID })
}

func (s *memoryInboxStore) UpdateMissingStationImported(_ context.Context, id string, key StationKey, title string) error {
	return s.mutate(id, func(entry *InboxEntry) {
		entry.CountryCode = key.Country
		entry.StationID = key.ID
		entry.Title = title
		entry.Done = true
	})
}

func (s *memoryInboxStore) CountPendingInboxEntries(context.Context) (int, error) {
	return len(s.filter(func(entry InboxEntry) bool { return !entry.Done })), nil
}

func (s *memoryInboxStore) CountPendingInboxEntriesForStation(_ context.Context, excludeID string, key StationKey) (int, error) {
	return len(s.filter(func(entry InboxEntry) bool {
		return !entry.Done && entry.ID != excludeID && entry.StationKey() == key
	})), nil
}

func (s *memoryInboxStore) CountPendingInboxEntriesForNearbyCoordinates(
	_ context.Context,
	excludeID string,
	coordinates Coordinates,
	proximity Proximity,
) (int, error) {
	return len(s.filter(func(entry InboxEntry) bool {
		return !entry.Done && entry.ID != excludeID && entry.Coordinates != nil &&
			proximity.Nearby(*entry.Coordinates, coordinates)
	})), nil
}

func (s *memoryInboxStore) MarkNotified(_ context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.mutate(id, func(entry *InboxEntry) { entry.Notified = true }); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryInboxStore) MarkPosted(_ context.Context, id string) error {
	return s.mutate(id, func(entry *InboxEntry) { entry.Posted = true })
}

func (s *memoryInboxStore) filter(keep func(InboxEntry) bool) []InboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []InboxEntry{}
	for _, id := range s.order {
		if entry := s.entries[id]; keep(entry) {
			out = append(out, entry)
		}
	}
	return out
}

func (s *memoryInboxStore) mutate(id string, fn func(*InboxEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("inbox entry %s not found", id)
	}
	fn(&entry)
	s.entries[id] = entry
	return nil
}

type memoryUserStore struct {
	users map[string]User
}

func (s memoryUserStore) FindByID(_ context.Context, id string) (User, bool, error) {
	user, ok := s.users[id]
	return user, ok, nil
}

type memoryCountryStore struct {
	countries map[string]Country
}

func (s memoryCountryStore) FindByID(_ context.Context, code string) (Country, bool, error) {
	country, ok := s.countries[code]
	return country, ok, nil
}

type memoryPhotoStorage struct {
	mu        sync.Mutex
	maxSize   int64
	uploads   map[string][]byte
	processed map[string]bool
	imported  []string
	rejected  []string
	importErr error
	rejectErr error
}

func newMemoryPhotoStorage() *memoryPhotoStorage {
	return &memoryPhotoStorage{
		uploads:   map[string][]byte{},
		processed: map[string]bool{},
	}
}

func (s *memoryPhotoStorage) StoreUpload(_ context.Context, body io.Reader, filename string) (uint32, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return 0, err
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return 0, &PhotoTooLargeError{MaxSize: s.maxSize}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[filename] = data
	return crc32.ChecksumIEEE(data), nil
}

func (s *memoryPhotoStorage) ImportPhoto(_ context.Context, entry InboxEntry, station Station) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.importErr != nil {
		return "", s.importErr
	}
	s.imported = append(s.imported, entry.Filename())
	return fmt.Sprintf("/%s/%s_%s.%s", station.Key.Country, station.Key.ID, entry.ID, entry.Extension), nil
}

func (s *memoryPhotoStorage) Reject(_ context.Context, entry InboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectErr != nil {
		return s.rejectErr
	}
	s.rejected = append(s.rejected, entry.Filename())
	return nil
}

func (s *memoryPhotoStorage) IsProcessed(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[filename]
}

func (s *memoryPhotoStorage) UploadFile(filename string) string {
	return "/inbox/" + filename
}

type recordingMonitor struct {
	mu       sync.Mutex
	messages []MonitorMessage
	err      error
}

func (m *recordingMonitor) Send(_ context.Context, msg MonitorMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *recordingMonitor) last() MonitorMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return MonitorMessage{}
	}
	return m.messages[len(m.messages)-1]
}

type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

func (m *recordingMetrics) IncCounter(_ context.Context, name string, value int64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = map[string]int64{}
	}
	m.counters[name] += value
}

func (m *recordingMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}

type testWorld struct {
	service   *Service
	stations  *memoryStationStore
	photos    *memoryPhotoStore
	inbox     *memoryInboxStore
	users     memoryUserStore
	countries memoryCountryStore
	storage   *memoryPhotoStorage
	monitor   *recordingMonitor
}

var (
	testPhotographer = User{
		ID:            "user-1",
		Name:          "nordbahn",
		License:       LicenseCC0,
		EmailVerified: true,
		OwnPhotos:     true,
	}
	testOtherUser = User{
		ID:            "user-2",
		Name:          "suedbahn",
		License:       LicenseCCBYSA40,
		EmailVerified: true,
		OwnPhotos:     true,
	}
)

func newTestWorld(t *testing.T, opts ...Option) *testWorld {
	t.Helper()
	stations := newMemoryStationStore()
	world := &testWorld{
		stations: stations,
		photos:   &memoryPhotoStore{stations: stations},
		inbox:    newMemoryInboxStore(stations),
		users: memoryUserStore{users: map[string]User{
			testPhotographer.ID: testPhotographer,
			testOtherUser.ID:    testOtherUser,
		}},
		countries: memoryCountryStore{countries: map[string]Country{
			"de": {Code: "de", Name: "Deutschland", Active: true},
			"fr": {Code: "fr", Name: "France", Active: true, OverrideLicense: licensePtr(LicenseCCBYNC40Intl)},
		}},
		storage: newMemoryPhotoStorage(),
		monitor: &recordingMonitor{},
	}
	base := []Option{
		WithStationStore(world.stations),
		WithPhotoStore(world.photos),
		WithInboxStore(world.inbox),
		WithUserStore(world.users),
		WithCountryStore(world.countries),
		WithPhotoStorage(world.storage),
		WithMonitor(world.monitor),
		WithClock(func() time.Time { return testNow }),
	}
	cfg := DefaultConfig()
	cfg.InboxBaseURL = "https://inbox.example.org"
	cfg.PhotoBaseURL = "https://photos.example.org"
	svc, err := NewService(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	world.service = svc
	return world
}

func (w *testWorld) addStation(key StationKey, title string, coords Coordinates, photos ...Photo) Station {
	for i := range photos {
		photos[i].StationKey = key
		if photos[i].CreatedAt.IsZero() {
			photos[i].CreatedAt = testNow.Add(-48 * time.Hour)
		}
	}
	station := Station{Key: key, Title: title, Coordinates: coords, Active: true, Photos: photos}
	w.stations.put(station)
	return station
}

func (w *testWorld) addEntry(t *testing.T, entry InboxEntry) InboxEntry {
	t.Helper()
	if entry.PhotographerID == "" {
		entry.PhotographerID = testPhotographer.ID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = testNow
	}
	id, err := w.inbox.Insert(context.Background(), entry)
	if err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	return w.inbox.get(id)
}

func licensePtr(license License) *License {
	return &license
}

func floatPtr(value float64) *float64 {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func problemTypePtr(value ProblemReportType) *ProblemReportType {
	return &value
}

func expectValidationError(t *testing.T, err error, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error %q, got nil", message)
	}
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}
	if got := ErrorMessage(err); got != message {
		t.Fatalf("expected message %q, got %q", message, got)
	}
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type stubStoreProvider struct {
	world *testWorld
}

func (p stubStoreProvider) StationStore() StationStore { return p.world.stations }
func (p stubStoreProvider) PhotoStore() PhotoStore     { return p.world.photos }
func (p stubStoreProvider) InboxStore() InboxStore     { return p.world.inbox }
func (p stubStoreProvider) UserStore() UserStore       { return p.world.users }
func (p stubStoreProvider) CountryStore() CountryStore { return p.world.countries }

type stubStoreFactory struct {
	provider StoreProvider
	client   any
}

func (f *stubStoreFactory) BuildStores(client any) (StoreProvider, error) {
	f.client = client
	return f.provider, nil
}
