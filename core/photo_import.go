package core

import (
	"context"
	"fmt"
)

type photoImportMode int

const (
	importAsPrimary photoImportMode = iota
	importAsSecondary
	overwritePrimary
)

// importPhoto moves the staged upload into permanent storage and records the
// photo. The file move happens before any database write so that a failure
// leaves the entry pending and retryable.
func (s *Service) importPhoto(ctx context.Context, cmd InboxCommand, entry InboxEntry, station Station) (string, error) {
	conflict, err := s.conflicts.StationHasConflict(ctx, entry.ID, &station)
	if err != nil {
		return "", s.mapError(err)
	}
	resolution := cmd.ConflictResolution
	if conflict && !resolution.SolvesPhotoConflict() {
		return "", newValidationError("There is a conflict with another photo")
	}
	mode, existing, err := photoImportPlan(station, resolution)
	if err != nil {
		return "", err
	}

	photographer, ok, err := s.users.FindByID(ctx, entry.PhotographerID)
	if err != nil {
		return "", s.mapError(err)
	}
	if !ok {
		return "", newValidationError(fmt.Sprintf("Photographer %s not found", entry.PhotographerID))
	}
	country, ok, err := s.countries.FindByID(ctx, station.Key.Country)
	if err != nil {
		return "", s.mapError(err)
	}
	if !ok {
		return "", newValidationError(fmt.Sprintf("Country %s not found", station.Key.Country))
	}

	urlPath, err := s.storage.ImportPhoto(ctx, entry, station)
	if err != nil {
		return "", s.storageError(err, "Error moving file")
	}

	photo := Photo{
		StationKey:   station.Key,
		Primary:      true,
		URLPath:      urlPath,
		Photographer: photographer,
		License:      ResolveLicense(photographer, country),
		CreatedAt:    s.now(),
	}
	var photoID string
	switch mode {
	case importAsPrimary:
		if station.HasPhoto() {
			if err = s.photos.SetAllPhotosForStationSecondary(ctx, station.Key); err != nil {
				return "", s.mapError(err)
			}
		}
		photoID, err = s.photos.Insert(ctx, photo)
	case importAsSecondary:
		photo.Primary = false
		photoID, err = s.photos.Insert(ctx, photo)
	case overwritePrimary:
		photo.ID = existing.ID
		photoID = existing.ID
		err = s.photos.Update(ctx, photo)
	}
	if err != nil {
		return "", s.mapError(err)
	}

	if err = s.inbox.UpdatePhotoID(ctx, entry.ID, photoID); err != nil {
		return "", s.mapError(err)
	}
	return photoID, nil
}

// photoImportPlan picks how a new photo lands on the station. A station
// without photos only accepts a new primary photo.
func photoImportPlan(station Station, resolution ConflictResolution) (photoImportMode, Photo, error) {
	if !station.HasPhoto() {
		switch resolution {
		case ConflictResolutionOverwriteExistingPhoto, ConflictResolutionImportAsNewSecondaryPhoto:
			return 0, Photo{}, newValidationError("Station has no photo, only import as new primary photo possible")
		}
		return importAsPrimary, Photo{}, nil
	}
	switch resolution {
	case ConflictResolutionImportAsNewPrimaryPhoto:
		return importAsPrimary, Photo{}, nil
	case ConflictResolutionImportAsNewSecondaryPhoto:
		return importAsSecondary, Photo{}, nil
	case ConflictResolutionOverwriteExistingPhoto:
		primary, ok := station.PrimaryPhoto()
		if !ok {
			return 0, Photo{}, newValidationError("Station has no primary photo to overwrite")
		}
		return overwritePrimary, primary, nil
	default:
		return 0, Photo{}, newValidationError("No suitable conflict resolution provided")
	}
}
