package core

import "context"

// ConflictDetector answers read-only conflict questions against the station
// and inbox stores. Callers pass the id of the entry under review so that it
// never conflicts with itself.
type ConflictDetector struct {
	stations  StationStore
	inbox     InboxStore
	proximity Proximity
}

func NewConflictDetector(stations StationStore, inbox InboxStore, proximity Proximity) *ConflictDetector {
	return &ConflictDetector{
		stations:  stations,
		inbox:     inbox,
		proximity: proximity.normalized(),
	}
}

// StationHasConflict is true when the station already has a photo or another
// pending entry targets the same station key.
func (d *ConflictDetector) StationHasConflict(ctx context.Context, excludeID string, station *Station) (bool, error) {
	if d == nil || station == nil {
		return false, nil
	}
	if station.HasPhoto() {
		return true, nil
	}
	if d.inbox == nil {
		return false, nil
	}
	count, err := d.inbox.CountPendingInboxEntriesForStation(ctx, excludeID, station.Key)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CoordinatesHaveConflict is true when other pending entries or existing
// stations lie within the proximity heuristic. Zero coordinates never
// conflict.
func (d *ConflictDetector) CoordinatesHaveConflict(ctx context.Context, excludeID string, coordinates *Coordinates) (bool, error) {
	if d == nil || !coordinatesPresent(coordinates) {
		return false, nil
	}
	if d.inbox != nil {
		count, err := d.inbox.CountPendingInboxEntriesForNearbyCoordinates(ctx, excludeID, *coordinates, d.proximity)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	if d.stations != nil {
		count, err := d.stations.CountNearbyCoordinates(ctx, *coordinates, d.proximity)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// PendingForStation reports whether any other pending entry targets key.
func (d *ConflictDetector) PendingForStation(ctx context.Context, excludeID string, key StationKey) (bool, error) {
	if d == nil || d.inbox == nil {
		return false, nil
	}
	count, err := d.inbox.CountPendingInboxEntriesForStation(ctx, excludeID, key)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
