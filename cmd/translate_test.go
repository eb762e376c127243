/*
Copyright © 2026 Khorshid Lab

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/store"
)

func persistableRecord(ghazalID string, number int, flagged bool) *internal.TranslationRecord {
	return &internal.TranslationRecord{
		Ghazal: internal.Ghazal{
			ID:     ghazalID,
			Number: number,
			Verses: []internal.Couplet{{Hemistich1: "یار مرا غار مرا", Hemistich2: "یار تویی غار تویی"}},
		},
		Translation: internal.Translation{
			Literal: internal.LiteralTranslation{
				Verses: []internal.VerseTranslation{
					{Verse: 1, Hemistich1: "the Friend is mine, the cave is mine", Hemistich2: "you are the Friend, you are the cave"},
				},
			},
			Refined: internal.RefinedTranslation{FullText: "The Friend is mine, the cave is mine."},
		},
		QA: internal.QAReport{Confidence: internal.ConfidenceHigh, NeedsHumanReview: flagged},
		Provenance: internal.Provenance{
			RecordID:        fmt.Sprintf("rec-%s", ghazalID),
			TranslatedAt:    time.Now().UTC(),
			Model:           "test/model",
			PipelineVersion: internal.PipelineVersion,
		},
		Flagged: flagged,
	}
}

func TestPersistRecordsCountsOnlyStoredRecords(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	recs := []*internal.TranslationRecord{
		persistableRecord("F-0001", 1, true),
		persistableRecord("F-0001", 1, true), // same ghazal and version, append fails
		persistableRecord("F-0002", 2, false),
	}

	published, flagged := persistRecords(ctx, db, recs)
	if published != 2 {
		t.Errorf("published = %d, want 2", published)
	}
	if flagged != 1 {
		t.Errorf("flagged = %d, want 1 (the unstored flagged record must not count)", flagged)
	}
}
