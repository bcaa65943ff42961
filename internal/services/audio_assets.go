package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/lingobridge-backend/internal/apperr"
	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

// AudioAssetService manages the listening clip catalog. Assets carry a
// transcript so listening comprehension questions can be generated
// without re-transcribing the clip, and only an object key so the
// serving URL can move between CDN and bucket without touching rows.
type AudioAssetService interface {
	SeedDefaultCatalog(ctx context.Context) error
	RandomClipForLevel(ctx context.Context, level types.CEFRLevel) (*AudioClipView, error)
	RandomOneClipPerLevel(ctx context.Context) (map[types.CEFRLevel]*AudioClipView, error)
	ClipByID(ctx context.Context, assetID uuid.UUID) (*AudioClipView, error)
	ImportClip(ctx context.Context, level types.CEFRLevel, title string, transcript string, audio []byte) (*AudioClipView, error)
}

// AudioClipView is the serving shape: the stored object key resolved to
// a public URL.
type AudioClipView struct {
	AssetID    uuid.UUID       `json:"asset_id"`
	Level      types.CEFRLevel `json:"level"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Transcript string          `json:"transcript"`
}

type audioAssetService struct {
	log       *logger.Logger
	assetRepo repos.AudioAssetRepo
	bucket    BucketService
}

func NewAudioAssetService(log *logger.Logger, assetRepo repos.AudioAssetRepo, bucket BucketService) AudioAssetService {
	return &audioAssetService{
		log:       log.With("service", "AudioAssetService"),
		assetRepo: assetRepo,
		bucket:    bucket,
	}
}

func seedAssetID(seedKey string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("audio:"+seedKey))
}

type seedClip struct {
	title      string
	objectKey  string
	transcript string
}

// listeningClipSeed ships one bundled clip per placement level. The
// object keys point at pre-uploaded bucket media.
var listeningClipSeed = map[types.CEFRLevel][]seedClip{
	types.LevelA1: {
		{
			title:     "At the Market",
			objectKey: "audio/seed/a1_at_the_market.mp3",
			transcript: "Good morning. I would like two apples and one bottle of water, please. " +
				"That is three euros. Thank you, have a nice day.",
		},
	},
	types.LevelA2: {
		{
			title:     "Weekend Plans",
			objectKey: "audio/seed/a2_weekend_plans.mp3",
			transcript: "On Saturday I am going to visit my grandmother. She lives near the lake, " +
				"so we usually walk along the water and then cook lunch together. On Sunday I just rest.",
		},
	},
	types.LevelB1: {
		{
			title:     "Commuting Changes",
			objectKey: "audio/seed/b1_commuting_changes.mp3",
			transcript: "Since the new tram line opened, my commute has completely changed. I used to " +
				"drive for forty minutes, but now I read on the tram and arrive in half the time. " +
				"The only downside is how crowded it gets during rush hour.",
		},
	},
	types.LevelB2: {
		{
			title:     "Remote Work Debate",
			objectKey: "audio/seed/b2_remote_work_debate.mp3",
			transcript: "The panel disagreed sharply about remote work. One speaker argued that " +
				"productivity figures speak for themselves, while another insisted that informal " +
				"collaboration suffers in ways no metric captures. In the end they conceded that " +
				"hybrid arrangements are probably here to stay, whether managers like it or not.",
		},
	},
}

func (s *audioAssetService) SeedDefaultCatalog(ctx context.Context) error {
	var assets []*types.AudioAsset
	for _, level := range placementLevels {
		for index, clip := range listeningClipSeed[level] {
			seedKey := fmt.Sprintf("listening_%s_%02d", level, index+1)
			assets = append(assets, &types.AudioAsset{
				ID:         seedAssetID(seedKey),
				Level:      level,
				Title:      clip.title,
				ObjectKey:  clip.objectKey,
				Transcript: clip.transcript,
				SeedKey:    seedKey,
			})
		}
	}
	if err := s.assetRepo.UpsertSeed(ctx, nil, assets); err != nil {
		return fmt.Errorf("seeding audio catalog: %w", err)
	}
	s.log.Info("Audio catalog seeded", "count", len(assets))
	return nil
}

func (s *audioAssetService) RandomClipForLevel(ctx context.Context, level types.CEFRLevel) (*AudioClipView, error) {
	asset, err := s.assetRepo.RandomByLevel(ctx, nil, level)
	if err != nil {
		return nil, fmt.Errorf("picking clip: %w", err)
	}
	if asset == nil {
		return nil, apperr.NotFoundf("no_clip_for_level", "no audio clip available at level %s", level)
	}
	return s.view(asset), nil
}

// RandomOneClipPerLevel draws one clip for each placement level. Levels
// with an empty catalog are left out of the map rather than failing the
// whole draw.
func (s *audioAssetService) RandomOneClipPerLevel(ctx context.Context) (map[types.CEFRLevel]*AudioClipView, error) {
	clips := make(map[types.CEFRLevel]*AudioClipView, len(placementLevels))
	for _, level := range placementLevels {
		asset, err := s.assetRepo.RandomByLevel(ctx, nil, level)
		if err != nil {
			return nil, fmt.Errorf("picking clip for %s: %w", level, err)
		}
		if asset == nil {
			continue
		}
		clips[level] = s.view(asset)
	}
	return clips, nil
}

func (s *audioAssetService) ClipByID(ctx context.Context, assetID uuid.UUID) (*AudioClipView, error) {
	asset, err := s.assetRepo.GetByID(ctx, nil, assetID)
	if err != nil {
		return nil, fmt.Errorf("fetching clip: %w", err)
	}
	if asset == nil {
		return nil, apperr.NotFoundf("clip_not_found", "no audio clip %s", assetID)
	}
	return s.view(asset), nil
}

func (s *audioAssetService) ImportClip(ctx context.Context, level types.CEFRLevel, title string, transcript string, audio []byte) (*AudioClipView, error) {
	if len(audio) == 0 {
		return nil, apperr.Validationf("empty_audio", "audio payload is empty")
	}
	if title == "" {
		return nil, apperr.Validationf("missing_title", "clip title is required")
	}

	asset := &types.AudioAsset{
		ID:         uuid.New(),
		Level:      level,
		Title:      title,
		Transcript: transcript,
		SeedKey:    fmt.Sprintf("import_%s", uuid.New()),
	}
	asset.ObjectKey = fmt.Sprintf("audio/import/%s.mp3", asset.ID)

	if err := s.bucket.UploadObject(ctx, asset.ObjectKey, bytes.NewReader(audio)); err != nil {
		return nil, apperr.External("clip_upload_failed", err)
	}
	if err := s.assetRepo.UpsertSeed(ctx, nil, []*types.AudioAsset{asset}); err != nil {
		// best effort: do not leave an orphan object behind
		if delErr := s.bucket.DeleteObject(ctx, asset.ObjectKey); delErr != nil {
			s.log.Warn("Failed to clean up orphan clip object", "key", asset.ObjectKey, "error", delErr)
		}
		return nil, fmt.Errorf("persisting clip: %w", err)
	}
	return s.view(asset), nil
}

func (s *audioAssetService) view(asset *types.AudioAsset) *AudioClipView {
	return &AudioClipView{
		AssetID:    asset.ID,
		Level:      asset.Level,
		Title:      asset.Title,
		URL:        s.bucket.PublicURL(asset.ObjectKey),
		Transcript: asset.Transcript,
	}
}
