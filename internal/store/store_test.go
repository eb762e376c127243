package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/khorshidlab/divantran/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testGhazal(id string, number int) internal.Ghazal {
	return internal.Ghazal{
		ID:     id,
		Number: number,
		Verses: []internal.Couplet{{Hemistich1: "یار مرا غار مرا", Hemistich2: "یار تویی غار تویی"}},
	}
}

func testRecord(ghazalID string, number int, version string) *internal.TranslationRecord {
	return &internal.TranslationRecord{
		Ghazal: testGhazal(ghazalID, number),
		Translation: internal.Translation{
			Literal: internal.LiteralTranslation{
				Verses: []internal.VerseTranslation{
					{Verse: 1, Hemistich1: "the Friend is mine, the cave is mine", Hemistich2: "you are the Friend, you are the cave"},
				},
			},
			Refined: internal.RefinedTranslation{FullText: "The Friend is mine, the cave is mine."},
		},
		QA: internal.QAReport{Confidence: internal.ConfidenceHigh},
		Provenance: internal.Provenance{
			RecordID:        fmt.Sprintf("rec-%s-%s", ghazalID, version),
			TranslatedAt:    time.Now().UTC(),
			Model:           "test/model",
			PipelineVersion: version,
		},
	}
}

func TestSaveAndLoadGhazal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := testGhazal("F-2114", 2114)
	g.Meter = "رمل مثمن"
	if err := s.SaveGhazal(ctx, &g); err != nil {
		t.Fatalf("SaveGhazal failed: %v", err)
	}

	got, err := s.Ghazal(ctx, "F-2114")
	if err != nil {
		t.Fatalf("Ghazal failed: %v", err)
	}
	if got.Meter != "رمل مثمن" || len(got.Verses) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := s.Ghazal(ctx, "F-9999"); err == nil {
		t.Error("expected an error for a missing ghazal")
	}
}

func TestListGhazalsOrderedByNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, n := range []int{30, 10, 20} {
		g := testGhazal(fmt.Sprintf("F-%04d", n), n)
		if err := s.SaveGhazal(ctx, &g); err != nil {
			t.Fatal(err)
		}
	}

	ghazals, err := s.ListGhazals(ctx)
	if err != nil {
		t.Fatalf("ListGhazals failed: %v", err)
	}
	if len(ghazals) != 3 {
		t.Fatalf("ghazals = %d, want 3", len(ghazals))
	}
	for i, want := range []int{10, 20, 30} {
		if ghazals[i].Number != want {
			t.Errorf("ghazals[%d].Number = %d, want %d", i, ghazals[i].Number, want)
		}
	}
}

func TestAppendRecordIsAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := testGhazal("F-0001", 1)
	if err := s.SaveGhazal(ctx, &g); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRecord(ctx, testRecord("F-0001", 1, "1.1")); err != nil {
		t.Fatalf("AppendRecord failed: %v", err)
	}

	// Same ghazal, same version: rejected.
	dup := testRecord("F-0001", 1, "1.1")
	dup.Provenance.RecordID = "rec-dup"
	err := s.AppendRecord(ctx, dup)
	if !errors.Is(err, ErrVersionExists) {
		t.Fatalf("duplicate version error = %v, want ErrVersionExists", err)
	}

	// Same ghazal, bumped version: appended.
	if err := s.AppendRecord(ctx, testRecord("F-0001", 1, "2.0")); err != nil {
		t.Fatalf("AppendRecord at new version failed: %v", err)
	}

	versions, err := s.RecordVersions(ctx, "F-0001")
	if err != nil {
		t.Fatalf("RecordVersions failed: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("versions = %d, want 2 (history preserved)", len(versions))
	}
	if versions[0].Provenance.PipelineVersion != "1.1" || versions[1].Provenance.PipelineVersion != "2.0" {
		t.Errorf("history out of order: %s, %s",
			versions[0].Provenance.PipelineVersion, versions[1].Provenance.PipelineVersion)
	}
}

func TestAppendRecordRejectsIncomplete(t *testing.T) {
	s := newTestStore(t)

	rec := testRecord("F-0002", 2, "2.0")
	rec.Provenance.RecordID = ""
	if err := s.AppendRecord(context.Background(), rec); err == nil {
		t.Error("expected validation failure for a record with no id")
	}
}

func TestHasRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := testGhazal("F-0003", 3)
	if err := s.SaveGhazal(ctx, &g); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRecord(ctx, testRecord("F-0003", 3, "2.0")); err != nil {
		t.Fatal(err)
	}

	ok, err := s.HasRecord(ctx, "F-0003", "2.0")
	if err != nil || !ok {
		t.Errorf("HasRecord = %v, %v; want true, nil", ok, err)
	}
	ok, err = s.HasRecord(ctx, "F-0003", "3.0")
	if err != nil || ok {
		t.Errorf("HasRecord for unseen version = %v, %v; want false, nil", ok, err)
	}
}

func TestLatestRecordsWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, n := range []int{2, 1} {
		g := testGhazal(fmt.Sprintf("F-%04d", n), n)
		if err := s.SaveGhazal(ctx, &g); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AppendRecord(ctx, testRecord("F-0001", 1, "1.1")); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRecord(ctx, testRecord("F-0001", 1, "2.0")); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRecord(ctx, testRecord("F-0002", 2, "1.1")); err != nil {
		t.Fatal(err)
	}

	latest, err := s.LatestRecords(ctx)
	if err != nil {
		t.Fatalf("LatestRecords failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("latest = %d, want one per ghazal", len(latest))
	}
	if latest[0].Ghazal.ID != "F-0001" || latest[0].Provenance.PipelineVersion != "2.0" {
		t.Errorf("latest[0] = %s@%s, want F-0001@2.0",
			latest[0].Ghazal.ID, latest[0].Provenance.PipelineVersion)
	}
	if latest[1].Ghazal.ID != "F-0002" || latest[1].Provenance.PipelineVersion != "1.1" {
		t.Errorf("latest[1] = %s@%s, want F-0002@1.1",
			latest[1].Ghazal.ID, latest[1].Provenance.PipelineVersion)
	}
}

func TestFlaggedRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, n := range []int{1, 2} {
		g := testGhazal(fmt.Sprintf("F-%04d", n), n)
		if err := s.SaveGhazal(ctx, &g); err != nil {
			t.Fatal(err)
		}
	}
	flagged := testRecord("F-0001", 1, "2.0")
	flagged.QA.Confidence = internal.ConfidenceLow
	flagged.QA.NeedsHumanReview = true
	flagged.Flagged = true
	if err := s.AppendRecord(ctx, flagged); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRecord(ctx, testRecord("F-0002", 2, "2.0")); err != nil {
		t.Fatal(err)
	}

	got, err := s.FlaggedRecords(ctx)
	if err != nil {
		t.Fatalf("FlaggedRecords failed: %v", err)
	}
	if len(got) != 1 || got[0].Ghazal.ID != "F-0001" {
		t.Errorf("flagged = %+v, want just F-0001", got)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := testGhazal("F-0001", 1)
	if err := s.SaveGhazal(ctx, &g); err != nil {
		t.Fatal(err)
	}
	low := testRecord("F-0001", 1, "1.1")
	low.QA.Confidence = internal.ConfidenceLow
	low.Flagged = true
	if err := s.AppendRecord(ctx, low); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRecord(ctx, testRecord("F-0001", 1, "2.0")); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Ghazals != 1 || stats.Records != 2 || stats.Flagged != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByConfidence[internal.ConfidenceHigh] != 1 || stats.ByConfidence[internal.ConfidenceLow] != 1 {
		t.Errorf("confidence breakdown = %+v", stats.ByConfidence)
	}
}
