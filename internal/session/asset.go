package session

import (
	"context"
	"fmt"

	"github.com/manash/genstate/internal/cache"
	"github.com/manash/genstate/pkg/models"
)

func (s *Store) BuildVariantCacheKey(assetType, description string, width, height int) cache.Key {
	return cache.BuildKey(assetType, description, width, height)
}

func (s *Store) GetCachedVariants(sessionID string, key cache.Key) ([]models.Variant, bool) {
	return s.cache.Get(sessionID, key)
}

func (s *Store) CacheVariants(sessionID string, key cache.Key, variants []models.Variant) {
	s.cache.Set(sessionID, key, variants)
}

func (s *Store) ClearVariantCache(sessionID string) {
	s.cache.Clear(sessionID)
}

func (s *Store) mutateAsset(ctx context.Context, sessionID string, fn func(sess *Session) error) error {
	defer s.lock(sessionID)()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	return s.write(ctx, sess)
}

// RecordVariants stores a freshly generated candidate set. A request for a
// different asset starts a new asset session; the same request appends to
// the current one. The set is also cached under the request key built from
// the requested width and height, whatever size the variants came back at.
func (s *Store) RecordVariants(ctx context.Context, sessionID, assetType, description string, width, height int, variants []models.Variant) (asset *models.AssetSession, err error) {
	defer s.track("recordVariants", sessionID)(&err)

	if len(variants) == 0 {
		return nil, ErrNoVariants
	}
	variants = append([]models.Variant(nil), variants...)
	for i := range variants {
		if variants[i].ID == "" {
			variants[i].ID = s.newID()
		}
	}

	err = s.mutateAsset(ctx, sessionID, func(sess *Session) error {
		cur := sess.CurrentAsset
		if cur == nil || !sameRequest(cur, assetType, description) {
			cur = &models.AssetSession{AssetType: assetType, Description: description}
		}
		cur.AllVariants = append(cur.AllVariants, variants...)
		sess.CurrentAsset = cur
		asset = cur.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(sessionID, cache.BuildKey(assetType, description, width, height), variants)
	return asset, nil
}

func sameRequest(a *models.AssetSession, assetType, description string) bool {
	return cache.BuildKey(a.AssetType, a.Description, 0, 0) == cache.BuildKey(assetType, description, 0, 0)
}

func (s *Store) CurrentAsset(ctx context.Context, sessionID string) (asset *models.AssetSession, err error) {
	defer s.track("currentAsset", sessionID)(&err)

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.CurrentAsset == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNoAsset, sessionID)
	}
	return sess.CurrentAsset, nil
}

func (s *Store) SelectVariant(ctx context.Context, sessionID, variantID string) (v *models.Variant, err error) {
	defer s.track("selectVariant", sessionID)(&err)

	err = s.mutateAsset(ctx, sessionID, func(sess *Session) error {
		if sess.CurrentAsset == nil {
			return fmt.Errorf("%w: session %s", ErrNoAsset, sessionID)
		}
		got, ok := sess.CurrentAsset.Variant(variantID)
		if !ok {
			return fmt.Errorf("%w: %s", models.ErrVariantNotFound, variantID)
		}
		sess.CurrentAsset.SelectedVariantID = variantID
		v = &got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// RefineVariant records refined as derived from baseVariantID and selects it.
func (s *Store) RefineVariant(ctx context.Context, sessionID, baseVariantID, instruction string, refined models.Variant) (v *models.Variant, err error) {
	defer s.track("refineVariant", sessionID)(&err)

	if refined.ID == "" {
		refined.ID = s.newID()
	}
	err = s.mutateAsset(ctx, sessionID, func(sess *Session) error {
		asset := sess.CurrentAsset
		if asset == nil {
			return fmt.Errorf("%w: session %s", ErrNoAsset, sessionID)
		}
		if _, ok := asset.Variant(baseVariantID); !ok {
			return fmt.Errorf("%w: base %s", models.ErrVariantNotFound, baseVariantID)
		}
		if _, ok := asset.Variant(refined.ID); ok {
			return fmt.Errorf("variant %s already recorded", refined.ID)
		}
		asset.AllVariants = append(asset.AllVariants, refined)
		asset.Refinements = append(asset.Refinements, models.Refinement{
			BaseVariantID: baseVariantID,
			VariantID:     refined.ID,
			Instruction:   instruction,
			CreatedAt:     s.now(),
		})
		asset.SelectedVariantID = refined.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &refined, nil
}

// VariantParent returns the variant that variantID was refined from.
func (s *Store) VariantParent(ctx context.Context, sessionID, variantID string) (v *models.Variant, err error) {
	defer s.track("variantParent", sessionID)(&err)

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.CurrentAsset == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNoAsset, sessionID)
	}
	parent, ok := sess.CurrentAsset.Parent(variantID)
	if !ok {
		return nil, fmt.Errorf("%w: no parent for %s", models.ErrVariantNotFound, variantID)
	}
	return &parent, nil
}
