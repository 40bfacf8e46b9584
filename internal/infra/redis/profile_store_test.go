package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"adaptive-quiz-service/internal/coldstart"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type countingProfileStore struct {
	coldstart.ProfileStore
	loads int
}

func (s *countingProfileStore) Load(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.loads++
	return s.ProfileStore.Load(ctx, userID)
}

func sampleProfile() *domain.UserProfile {
	return &domain.UserProfile{
		UserID:             "u1",
		BaseDifficulty:     domain.DifficultyIntermediate,
		RelevantDomains:    []string{"mathematics"},
		DomainDifficulties: map[string]domain.Difficulty{"mathematics": domain.DifficultyIntermediate},
		ProfileConfidence:  0.3,
	}
}

func TestProfileStoreCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := &countingProfileStore{ProfileStore: memory.NewProfileStore()}
	store := NewProfileStore(newClient(mr), inner, time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, sampleProfile()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("profile:u1") {
		t.Fatal("expected redis key after save")
	}

	profile, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if profile.DomainDifficulties["mathematics"] != domain.DifficultyIntermediate {
		t.Fatalf("cached profile mismatch: %+v", profile)
	}
	if inner.loads != 0 {
		t.Fatalf("expected cache hit, inner loads=%d", inner.loads)
	}
}

func TestProfileStoreFallsThroughOnCorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := memory.NewProfileStore()
	ctx := context.Background()
	if err := inner.Save(ctx, sampleProfile()); err != nil {
		t.Fatalf("seed inner: %v", err)
	}
	if err := mr.Set("profile:u1", "{not json"); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	store := NewProfileStore(newClient(mr), inner, time.Minute)
	profile, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if profile.UserID != "u1" {
		t.Fatalf("loaded wrong profile: %+v", profile)
	}
}

func TestProfileStoreMissPropagates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewProfileStore(newClient(mr), memory.NewProfileStore(), time.Minute)
	if _, err := store.Load(context.Background(), "ghost"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
