package core

import (
	"context"
	"testing"
	"time"
)

func TestListAdminInbox_FlagsConflicts(t *testing.T) {
	world := newTestWorld(t)
	world.addStation(hannover, "Hannover Hbf", Coordinates{Lat: 52.376, Lon: 9.741})
	first := world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG})
	second := world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG})
	missing := world.addEntry(t, InboxEntry{CountryCode: "de", Title: "Mitte", Coordinates: &Coordinates{Lat: 52.377, Lon: 9.742}, Extension: ExtensionPNG})
	lonely := world.addEntry(t, InboxEntry{CountryCode: "de", Title: "Nirgendwo", Coordinates: &Coordinates{Lat: 47, Lon: 12}})
	world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG, Done: true})
	world.storage.processed[second.Filename()] = true

	views, err := world.service.ListAdminInbox(context.Background(), User{ID: "admin", Admin: true})
	if err != nil {
		t.Fatalf("list admin inbox: %v", err)
	}
	if len(views) != 4 {
		t.Fatalf("expected 4 pending entries, got %d", len(views))
	}
	byID := map[string]AdminInboxEntry{}
	for _, view := range views {
		byID[view.Entry.ID] = view
	}
	if !byID[first.ID].Conflict || !byID[second.ID].Conflict {
		t.Fatalf("expected entries for the same station to conflict")
	}
	if !byID[missing.ID].Conflict {
		t.Fatalf("expected missing station near existing station to conflict")
	}
	if byID[lonely.ID].Conflict {
		t.Fatalf("expected lonely missing station not to conflict")
	}
	if !byID[missing.ID].IsPhotoUpload || byID[lonely.ID].IsPhotoUpload {
		t.Fatalf("unexpected photo upload flags")
	}
	if !byID[second.ID].Processed || byID[first.ID].Processed {
		t.Fatalf("unexpected processed flags")
	}
	if got := byID[second.ID].InboxURL; got != "https://inbox.example.org/processed/"+second.Filename() {
		t.Fatalf("unexpected processed url %q", got)
	}
	if got := byID[first.ID].InboxURL; got != "https://inbox.example.org/"+first.Filename() {
		t.Fatalf("unexpected inbox url %q", got)
	}
}

func TestListAdminInbox_ProblemReportLinksExistingPhoto(t *testing.T) {
	world := newTestWorld(t)
	world.addEntry(t, InboxEntry{
		CountryCode:          "de",
		StationID:            "8000",
		PhotoID:              "p1",
		ExistingPhotoURLPath: "/de/8000.jpg",
		ProblemReportType:    problemTypePtr(ProblemReportWrongPhoto),
	})
	views, err := world.service.ListAdminInbox(context.Background(), User{ID: "admin", Admin: true})
	if err != nil {
		t.Fatalf("list admin inbox: %v", err)
	}
	if got := views[0].InboxURL; got != "https://photos.example.org/de/8000.jpg" {
		t.Fatalf("expected existing photo url, got %q", got)
	}
}

func TestUserInbox_ByIDs(t *testing.T) {
	world := newTestWorld(t)
	world.addStation(hannover, "Hannover Hbf", Coordinates{Lat: 52.376, Lon: 9.741})
	pending := world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG, StationTitle: "Hannover Hbf", StationCoordinates: &Coordinates{Lat: 52.376, Lon: 9.741}})
	accepted := world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG, Done: true})
	reason := "blurry"
	rejected := world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG, Done: true, RejectReason: &reason})
	foreign := world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG, PhotographerID: testOtherUser.ID})

	views, err := world.service.UserInbox(context.Background(), UserInboxRequest{
		User: testPhotographer,
		IDs:  []string{pending.ID, accepted.ID, rejected.ID, foreign.ID, "entry-404"},
	})
	if err != nil {
		t.Fatalf("user inbox: %v", err)
	}
	if len(views) != 5 {
		t.Fatalf("expected 5 views, got %d", len(views))
	}
	expected := []InboxStateQueryState{InboxStateReview, InboxStateAccepted, InboxStateRejected, InboxStateUnknown, InboxStateUnknown}
	for i, state := range expected {
		if views[i].State != state {
			t.Fatalf("view %d: expected %s, got %s", i, state, views[i].State)
		}
	}
	if views[0].Title != "Hannover Hbf" || views[0].Coordinates == nil {
		t.Fatalf("expected station title and coordinates on pending view, got %#v", views[0])
	}
	if views[1].InboxURL != "https://inbox.example.org/done/"+accepted.Filename() {
		t.Fatalf("unexpected accepted url %q", views[1].InboxURL)
	}
	if views[2].RejectedReason != "blurry" || views[2].InboxURL != "https://inbox.example.org/rejected/"+rejected.Filename() {
		t.Fatalf("unexpected rejected view %#v", views[2])
	}
	if views[3].ID != foreign.ID || views[3].CountryCode != "" {
		t.Fatalf("expected foreign entry to be redacted, got %#v", views[3])
	}
}

func TestUserInbox_AllEntries(t *testing.T) {
	world := newTestWorld(t)
	world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG})
	world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8001", Extension: ExtensionJPG, Done: true})
	world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8002", Extension: ExtensionJPG, PhotographerID: testOtherUser.ID})

	pending, err := world.service.UserInbox(context.Background(), UserInboxRequest{User: testPhotographer})
	if err != nil {
		t.Fatalf("user inbox: %v", err)
	}
	if len(pending) != 1 || pending[0].StationID != "8000" {
		t.Fatalf("expected only the pending own entry, got %#v", pending)
	}
	all, err := world.service.UserInbox(context.Background(), UserInboxRequest{User: testPhotographer, IncludeDone: true})
	if err != nil {
		t.Fatalf("user inbox: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both own entries, got %d", len(all))
	}
}

func TestPublicInbox_HidesIdentityAndPrefersStationData(t *testing.T) {
	world := newTestWorld(t)
	world.addStation(hannover, "Hannover Hbf", Coordinates{Lat: 52.376, Lon: 9.741})
	world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG})
	world.addEntry(t, InboxEntry{CountryCode: "de", Title: "Neu", Coordinates: &Coordinates{Lat: 50, Lon: 8}, Extension: ExtensionJPG})
	world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", ProblemReportType: problemTypePtr(ProblemReportOther)})
	world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG, Done: true})

	views, err := world.service.PublicInbox(context.Background())
	if err != nil {
		t.Fatalf("public inbox: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 public entries, got %d", len(views))
	}
	if views[0].Title != "Hannover Hbf" || views[0].Coordinates == nil || views[0].Coordinates.Lat != 52.376 {
		t.Fatalf("expected station data on first view, got %#v", views[0])
	}
	if views[1].Title != "Neu" || views[1].StationID != "" || views[1].Coordinates.Lat != 50 {
		t.Fatalf("expected missing station data on second view, got %#v", views[1])
	}
}

func TestRecentImports(t *testing.T) {
	world := newTestWorld(t)
	world.addStation(StationKey{Country: "de", ID: "1"}, "Neu", Coordinates{Lat: 50, Lon: 8},
		Photo{ID: "p1", Primary: true, CreatedAt: testNow.Add(-2 * time.Hour), Photographer: testPhotographer})
	world.addStation(StationKey{Country: "de", ID: "2"}, "Alt", Coordinates{Lat: 51, Lon: 8},
		Photo{ID: "p2", Primary: true, CreatedAt: testNow.Add(-30 * time.Hour), Photographer: testOtherUser})

	recent, err := world.service.ListRecentImports(context.Background())
	if err != nil {
		t.Fatalf("recent imports: %v", err)
	}
	if len(recent) != 1 || recent[0].Key.ID != "1" {
		t.Fatalf("expected only station 1 in the 24h window, got %#v", recent)
	}
	picked, ok, err := world.service.PickRecentImport(context.Background())
	if err != nil || !ok || picked.Key.ID != "1" {
		t.Fatalf("expected station 1 to be picked, got %#v %v %v", picked, ok, err)
	}

	stations, err := world.service.ListPhotographerStations(context.Background(), testOtherUser.ID)
	if err != nil || len(stations) != 1 || stations[0].Key.ID != "2" {
		t.Fatalf("expected station 2 for other user, got %#v %v", stations, err)
	}
	_, err = world.service.ListPhotographerStations(context.Background(), " ")
	expectValidationError(t, err, "Photographer id is required")
}

func TestPickRecentImport_EmptyAndSeeded(t *testing.T) {
	world := newTestWorld(t)
	if _, ok, err := world.service.PickRecentImport(context.Background()); err != nil || ok {
		t.Fatalf("expected nothing to pick, got %v %v", ok, err)
	}

	pick := func() []string {
		w := newTestWorld(t)
		for _, id := range []string{"1", "2", "3", "4", "5"} {
			w.addStation(StationKey{Country: "de", ID: id}, "S"+id, Coordinates{Lat: 50, Lon: 8},
				Photo{ID: "p" + id, CreatedAt: testNow.Add(-time.Hour)})
		}
		out := []string{}
		for i := 0; i < 5; i++ {
			station, _, err := w.service.PickRecentImport(context.Background())
			if err != nil {
				t.Fatalf("pick: %v", err)
			}
			out = append(out, station.Key.ID)
		}
		return out
	}
	a, b := pick(), pick()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical sequences for the same seed, got %v and %v", a, b)
		}
	}
}

func TestNextZ_WithoutCommunityStations(t *testing.T) {
	world := newTestWorld(t)
	world.addStation(hannover, "Hannover Hbf", Coordinates{Lat: 52.376, Lon: 9.741})
	next, err := world.service.NextZ(context.Background())
	if err != nil || next != "Z1" {
		t.Fatalf("expected Z1, got %q %v", next, err)
	}
}
