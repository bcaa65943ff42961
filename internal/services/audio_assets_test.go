package services

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/lingobridge-backend/internal/apperr"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

func newAudioFixture(t *testing.T) AudioAssetService {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	return NewAudioAssetService(log, repos.NewAudioAssetRepo(db, log), &fakeBucket{})
}

func TestSeedDefaultCatalogIsIdempotent(t *testing.T) {
	svc := newAudioFixture(t)
	ctx := context.Background()

	if err := svc.SeedDefaultCatalog(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	first, err := svc.RandomClipForLevel(ctx, types.LevelA1)
	if err != nil {
		t.Fatalf("pick failed: %v", err)
	}

	if err := svc.SeedDefaultCatalog(ctx); err != nil {
		t.Fatalf("reseed failed: %v", err)
	}
	second, err := svc.RandomClipForLevel(ctx, types.LevelA1)
	if err != nil {
		t.Fatalf("pick after reseed failed: %v", err)
	}
	if first.AssetID != second.AssetID {
		t.Fatalf("reseed minted a new asset: %s vs %s", first.AssetID, second.AssetID)
	}
}

func TestRandomOneClipPerLevel(t *testing.T) {
	svc := newAudioFixture(t)
	ctx := context.Background()

	// empty catalog yields an empty map, not an error
	clips, err := svc.RandomOneClipPerLevel(ctx)
	if err != nil {
		t.Fatalf("draw on empty catalog failed: %v", err)
	}
	if len(clips) != 0 {
		t.Fatalf("empty catalog should yield no clips, got %d", len(clips))
	}

	if err := svc.SeedDefaultCatalog(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	clips, err = svc.RandomOneClipPerLevel(ctx)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	for _, level := range []types.CEFRLevel{types.LevelA1, types.LevelA2, types.LevelB1, types.LevelB2} {
		clip, ok := clips[level]
		if !ok {
			t.Fatalf("no clip drawn for %s", level)
		}
		if clip.Level != level {
			t.Fatalf("clip level mismatch: got %s, want %s", clip.Level, level)
		}
		if !strings.HasPrefix(clip.URL, "https://cdn.test/") {
			t.Fatalf("url not resolved through bucket: %q", clip.URL)
		}
		if clip.Transcript == "" {
			t.Fatalf("clip for %s has no transcript", level)
		}
	}
}

func TestImportClip(t *testing.T) {
	svc := newAudioFixture(t)
	ctx := context.Background()

	if _, err := svc.ImportClip(ctx, types.LevelB1, "News Brief", "Today in the news.", nil); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for empty audio, got %v", err)
	}
	if _, err := svc.ImportClip(ctx, types.LevelB1, "", "Today in the news.", []byte("mp3")); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}

	clip, err := svc.ImportClip(ctx, types.LevelB1, "News Brief", "Today in the news.", []byte("mp3"))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	fetched, err := svc.ClipByID(ctx, clip.AssetID)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if fetched.Title != "News Brief" || fetched.Level != types.LevelB1 {
		t.Fatalf("unexpected clip: %+v", fetched)
	}
}
