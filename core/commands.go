package core

import (
	"fmt"
	"strings"
)

type ConflictResolution string

const (
	ConflictResolutionDoNothing                 ConflictResolution = "DO_NOTHING"
	ConflictResolutionOverwriteExistingPhoto    ConflictResolution = "OVERWRITE_EXISTING_PHOTO"
	ConflictResolutionImportAsNewPrimaryPhoto   ConflictResolution = "IMPORT_AS_NEW_PRIMARY_PHOTO"
	ConflictResolutionImportAsNewSecondaryPhoto ConflictResolution = "IMPORT_AS_NEW_SECONDARY_PHOTO"
	ConflictResolutionIgnoreNearbyStation       ConflictResolution = "IGNORE_NEARBY_STATION"
)

func (r ConflictResolution) IsValid() bool {
	switch r {
	case "", ConflictResolutionDoNothing, ConflictResolutionOverwriteExistingPhoto,
		ConflictResolutionImportAsNewPrimaryPhoto, ConflictResolutionImportAsNewSecondaryPhoto,
		ConflictResolutionIgnoreNearbyStation:
		return true
	default:
		return false
	}
}

func (r ConflictResolution) SolvesPhotoConflict() bool {
	switch r {
	case ConflictResolutionOverwriteExistingPhoto,
		ConflictResolutionImportAsNewPrimaryPhoto,
		ConflictResolutionImportAsNewSecondaryPhoto:
		return true
	default:
		return false
	}
}

// SolvesStationConflict reports whether a nearby-station conflict may be
// ignored. The photo strategies count as well.
func (r ConflictResolution) SolvesStationConflict() bool {
	return r == ConflictResolutionIgnoreNearbyStation || r.SolvesPhotoConflict()
}

// InboxCommand carries an administrator decision about one inbox entry.
// Optional station fields override the values stored on the entry.
type InboxCommand struct {
	ID                 string             `json:"id"`
	CountryCode        string             `json:"country_code,omitempty"`
	StationID          string             `json:"station_id,omitempty"`
	Title              string             `json:"title,omitempty"`
	Coordinates        *Coordinates       `json:"coordinates,omitempty"`
	DS100              string             `json:"ds100,omitempty"`
	Active             *bool              `json:"active,omitempty"`
	RejectReason       string             `json:"reject_reason,omitempty"`
	ConflictResolution ConflictResolution `json:"conflict_resolution,omitempty"`
}

func (c InboxCommand) HasStationKey() bool {
	return strings.TrimSpace(c.CountryCode) != "" && strings.TrimSpace(c.StationID) != ""
}

type AdminCommandKind string

const (
	AdminCommandImportPhoto          AdminCommandKind = "IMPORT_PHOTO"
	AdminCommandImportMissingStation AdminCommandKind = "IMPORT_MISSING_STATION"
	AdminCommandActivateStation      AdminCommandKind = "ACTIVATE_STATION"
	AdminCommandDeactivateStation    AdminCommandKind = "DEACTIVATE_STATION"
	AdminCommandDeleteStation        AdminCommandKind = "DELETE_STATION"
	AdminCommandDeletePhoto          AdminCommandKind = "DELETE_PHOTO"
	AdminCommandMarkSolved           AdminCommandKind = "MARK_SOLVED"
	AdminCommandReject               AdminCommandKind = "REJECT"
	AdminCommandChangeName           AdminCommandKind = "CHANGE_NAME"
	AdminCommandUpdateLocation       AdminCommandKind = "UPDATE_LOCATION"
	AdminCommandPhotoOutdated        AdminCommandKind = "PHOTO_OUTDATED"
)

// AdminCommand is a closed union; only types in this package implement it.
type AdminCommand interface {
	Kind() AdminCommandKind
	Command() InboxCommand
	accept(visitor AdminCommandVisitor) error
}

// AdminCommandVisitor has one method per AdminCommand type. The workflow
// engine implements it, so adding a command type without a handler fails to
// compile.
type AdminCommandVisitor interface {
	VisitImportPhoto(ImportPhotoCommand) error
	VisitImportMissingStation(ImportMissingStationCommand) error
	VisitActivateStation(ActivateStationCommand) error
	VisitDeactivateStation(DeactivateStationCommand) error
	VisitDeleteStation(DeleteStationCommand) error
	VisitDeletePhoto(DeletePhotoCommand) error
	VisitMarkSolved(MarkSolvedCommand) error
	VisitReject(RejectCommand) error
	VisitChangeName(ChangeNameCommand) error
	VisitUpdateLocation(UpdateLocationCommand) error
	VisitPhotoOutdated(PhotoOutdatedCommand) error
}

type ImportPhotoCommand struct{ InboxCommand }
type ImportMissingStationCommand struct{ InboxCommand }
type ActivateStationCommand struct{ InboxCommand }
type DeactivateStationCommand struct{ InboxCommand }
type DeleteStationCommand struct{ InboxCommand }
type DeletePhotoCommand struct{ InboxCommand }
type MarkSolvedCommand struct{ InboxCommand }
type RejectCommand struct{ InboxCommand }
type ChangeNameCommand struct{ InboxCommand }
type UpdateLocationCommand struct{ InboxCommand }
type PhotoOutdatedCommand struct{ InboxCommand }

func (c ImportPhotoCommand) Kind() AdminCommandKind          { return AdminCommandImportPhoto }
func (c ImportMissingStationCommand) Kind() AdminCommandKind { return AdminCommandImportMissingStation }
func (c ActivateStationCommand) Kind() AdminCommandKind      { return AdminCommandActivateStation }
func (c DeactivateStationCommand) Kind() AdminCommandKind    { return AdminCommandDeactivateStation }
func (c DeleteStationCommand) Kind() AdminCommandKind        { return AdminCommandDeleteStation }
func (c DeletePhotoCommand) Kind() AdminCommandKind          { return AdminCommandDeletePhoto }
func (c MarkSolvedCommand) Kind() AdminCommandKind           { return AdminCommandMarkSolved }
func (c RejectCommand) Kind() AdminCommandKind               { return AdminCommandReject }
func (c ChangeNameCommand) Kind() AdminCommandKind           { return AdminCommandChangeName }
func (c UpdateLocationCommand) Kind() AdminCommandKind       { return AdminCommandUpdateLocation }
func (c PhotoOutdatedCommand) Kind() AdminCommandKind        { return AdminCommandPhotoOutdated }

func (c ImportPhotoCommand) Command() InboxCommand          { return c.InboxCommand }
func (c ImportMissingStationCommand) Command() InboxCommand { return c.InboxCommand }
func (c ActivateStationCommand) Command() InboxCommand      { return c.InboxCommand }
func (c DeactivateStationCommand) Command() InboxCommand    { return c.InboxCommand }
func (c DeleteStationCommand) Command() InboxCommand        { return c.InboxCommand }
func (c DeletePhotoCommand) Command() InboxCommand          { return c.InboxCommand }
func (c MarkSolvedCommand) Command() InboxCommand           { return c.InboxCommand }
func (c RejectCommand) Command() InboxCommand               { return c.InboxCommand }
func (c ChangeNameCommand) Command() InboxCommand           { return c.InboxCommand }
func (c UpdateLocationCommand) Command() InboxCommand       { return c.InboxCommand }
func (c PhotoOutdatedCommand) Command() InboxCommand        { return c.InboxCommand }

func (c ImportPhotoCommand) accept(v AdminCommandVisitor) error { return v.VisitImportPhoto(c) }
func (c ImportMissingStationCommand) accept(v AdminCommandVisitor) error {
	return v.VisitImportMissingStation(c)
}
func (c ActivateStationCommand) accept(v AdminCommandVisitor) error {
	return v.VisitActivateStation(c)
}
func (c DeactivateStationCommand) accept(v AdminCommandVisitor) error {
	return v.VisitDeactivateStation(c)
}
func (c DeleteStationCommand) accept(v AdminCommandVisitor) error { return v.VisitDeleteStation(c) }
func (c DeletePhotoCommand) accept(v AdminCommandVisitor) error   { return v.VisitDeletePhoto(c) }
func (c MarkSolvedCommand) accept(v AdminCommandVisitor) error    { return v.VisitMarkSolved(c) }
func (c RejectCommand) accept(v AdminCommandVisitor) error        { return v.VisitReject(c) }
func (c ChangeNameCommand) accept(v AdminCommandVisitor) error    { return v.VisitChangeName(c) }
func (c UpdateLocationCommand) accept(v AdminCommandVisitor) error {
	return v.VisitUpdateLocation(c)
}
func (c PhotoOutdatedCommand) accept(v AdminCommandVisitor) error { return v.VisitPhotoOutdated(c) }

// NewAdminCommand builds the typed command for a wire-level kind.
func NewAdminCommand(kind AdminCommandKind, cmd InboxCommand) (AdminCommand, error) {
	switch AdminCommandKind(strings.ToUpper(strings.TrimSpace(string(kind)))) {
	case AdminCommandImportPhoto:
		return ImportPhotoCommand{cmd}, nil
	case AdminCommandImportMissingStation:
		return ImportMissingStationCommand{cmd}, nil
	case AdminCommandActivateStation:
		return ActivateStationCommand{cmd}, nil
	case AdminCommandDeactivateStation:
		return DeactivateStationCommand{cmd}, nil
	case AdminCommandDeleteStation:
		return DeleteStationCommand{cmd}, nil
	case AdminCommandDeletePhoto:
		return DeletePhotoCommand{cmd}, nil
	case AdminCommandMarkSolved:
		return MarkSolvedCommand{cmd}, nil
	case AdminCommandReject:
		return RejectCommand{cmd}, nil
	case AdminCommandChangeName:
		return ChangeNameCommand{cmd}, nil
	case AdminCommandUpdateLocation:
		return UpdateLocationCommand{cmd}, nil
	case AdminCommandPhotoOutdated:
		return PhotoOutdatedCommand{cmd}, nil
	default:
		return nil, newValidationError(fmt.Sprintf("Unknown command %q", kind))
	}
}
