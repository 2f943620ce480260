package validation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/corrector"
	"content-optimizer-be/pkg/seo/issue"
	"content-optimizer-be/pkg/seo/prompt"
	"content-optimizer-be/pkg/seo/recovery"
	"content-optimizer-be/pkg/seo/seotest"
	"content-optimizer-be/pkg/seo/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(caps ...corrector.Capability) (*validation.Pipeline, *issue.Detector) {
	log := logger.NewNop()
	det := issue.NewDetector(log)
	cache := validation.NewCache(validation.DefaultCacheOptions(), log)
	var corr *corrector.Corrector
	if len(caps) > 0 {
		rh := recovery.NewHandler(recovery.Options{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}, log)
		corr = corrector.NewCorrector(caps, rh, log, 10)
	}
	return validation.NewPipeline(det, cache, prompt.NewGenerator(nil), corr, log), det
}

func TestValidateUsesCache(t *testing.T) {
	p, det := newPipeline()
	ctx := context.Background()
	cfg := seo.DefaultConfig()

	first, err := p.Validate(ctx, seotest.ShortMeta(), cfg, issue.DetectOptions{})
	require.NoError(t, err)
	second, err := p.Validate(ctx, seotest.ShortMeta(), cfg, issue.DetectOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), det.Runs())

	st := p.Stats()
	assert.Equal(t, int64(1), st.Cache.Hits)
	assert.Equal(t, int64(1), st.Cache.Misses)
	assert.Equal(t, 1, st.Cache.Entries)
	assert.Equal(t, 50.0, st.Cache.HitRate)
	assert.Equal(t, int64(1), st.DetectorRuns)
}

func TestValidateCachedResultIsNotAliased(t *testing.T) {
	p, _ := newPipeline()
	ctx := context.Background()

	first, err := p.Validate(ctx, seotest.ShortMeta(), seo.DefaultConfig(), issue.DetectOptions{})
	require.NoError(t, err)
	first.Issues[0].Message = "changed by caller"
	first.Warnings = append(first.Warnings, "caller warning")

	second, err := p.Validate(ctx, seotest.ShortMeta(), seo.DefaultConfig(), issue.DetectOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, "changed by caller", second.Issues[0].Message)
	assert.NotContains(t, second.Warnings, "caller warning")
}

func TestValidateKeysOnConfigAndContent(t *testing.T) {
	p, det := newPipeline()
	ctx := context.Background()
	cfg := seo.DefaultConfig()

	_, err := p.Validate(ctx, seotest.ShortMeta(), cfg, issue.DetectOptions{})
	require.NoError(t, err)

	strict := cfg
	strict.MinMetaDescLength = 10
	r, err := p.Validate(ctx, seotest.ShortMeta(), strict, issue.DetectOptions{})
	require.NoError(t, err)
	assert.Empty(t, r.Issues, "a different configuration must not reuse the cached result")
	assert.Equal(t, int64(2), det.Runs())

	_, err = p.Validate(ctx, seotest.ShortMeta(), cfg, issue.DetectOptions{ExistingTitles: []string{"Other"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), det.Runs())

	_, err = p.Validate(ctx, seotest.Compliant(), cfg, issue.DetectOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), det.Runs())
}

func TestValidateConcurrentMissesRunDetectorOnce(t *testing.T) {
	p, det := newPipeline()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Validate(ctx, seotest.Compliant(), seo.DefaultConfig(), issue.DetectOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, det.Runs(), int64(8))
	assert.GreaterOrEqual(t, det.Runs(), int64(1))
}

func TestValidateAddsPriorWarningsOutsideCache(t *testing.T) {
	p, _ := newPipeline()
	ctx := context.Background()

	prior, err := p.Validate(ctx, seotest.ShortMeta(), seo.DefaultConfig(), issue.DetectOptions{})
	require.NoError(t, err)
	assert.Empty(t, prior.Warnings)

	again, err := p.Validate(ctx, seotest.ShortMeta(), seo.DefaultConfig(), issue.DetectOptions{Prior: prior})
	require.NoError(t, err)
	assert.Contains(t, again.Warnings, "issue meta_description_short persisted from previous pass")

	plain, err := p.Validate(ctx, seotest.ShortMeta(), seo.DefaultConfig(), issue.DetectOptions{})
	require.NoError(t, err)
	assert.Empty(t, plain.Warnings)
}

func TestValidateAndCorrect(t *testing.T) {
	ctx := context.Background()

	t.Run("corrects and re-validates", func(t *testing.T) {
		p, _ := newPipeline(seotest.Fixer("primary"))
		cfg := seo.DefaultConfig()

		rep, err := p.ValidateAndCorrect(ctx, seotest.ShortMeta(), cfg, issue.DetectOptions{})
		require.NoError(t, err)
		assert.Equal(t, 90.91, rep.Before.ComplianceScore)
		assert.Equal(t, 100.0, rep.After.ComplianceScore)
		assert.Equal(t, []string{string(seo.IssueMetaDescriptionShort)}, rep.After.CorrectionsMade)
		assert.Equal(t, seotest.CompliantMeta, rep.Document.MetaDescription)
		require.Len(t, rep.Prompts, 1)
		require.NotNil(t, rep.Outcome)
	})

	t.Run("auto correction disabled only validates", func(t *testing.T) {
		fixer := seotest.Fixer("primary")
		p, _ := newPipeline(fixer)
		cfg := seo.DefaultConfig()
		cfg.AutoCorrection = false

		rep, err := p.ValidateAndCorrect(ctx, seotest.ShortMeta(), cfg, issue.DetectOptions{})
		require.NoError(t, err)
		assert.Same(t, rep.Before, rep.After)
		assert.Empty(t, fixer.Calls())
		assert.Nil(t, rep.Outcome)
	})

	t.Run("compliant document is left alone", func(t *testing.T) {
		fixer := seotest.Fixer("primary")
		p, _ := newPipeline(fixer)
		rep, err := p.ValidateAndCorrect(ctx, seotest.Compliant(), seo.DefaultConfig(), issue.DetectOptions{})
		require.NoError(t, err)
		assert.Empty(t, rep.Prompts)
		assert.Empty(t, fixer.Calls())
	})

	t.Run("overridden issues are skipped", func(t *testing.T) {
		fixer := seotest.Fixer("primary")
		p, _ := newPipeline(fixer)
		p.Generator().Overrides().Set("meta_description", "legal copy", prompt.Override{SkipValidation: true})

		rep, err := p.ValidateAndCorrect(ctx, seotest.ShortMeta(), seo.DefaultConfig(), issue.DetectOptions{})
		require.NoError(t, err)
		assert.Empty(t, rep.Prompts)
		require.Len(t, rep.Skipped, 1)
		assert.Empty(t, fixer.Calls())
	})

	t.Run("corrector failure keeps the baseline", func(t *testing.T) {
		p, _ := newPipeline(seotest.Failing("down", assert.AnError))
		rep, err := p.ValidateAndCorrect(ctx, seotest.ShortMeta(), seo.DefaultConfig(), issue.DetectOptions{})
		require.ErrorIs(t, err, corrector.ErrProvidersExhausted)
		require.NotNil(t, rep)
		assert.Same(t, rep.Before, rep.After)
		assert.True(t, rep.Document.Equal(seotest.ShortMeta()))
	})
}

func TestCacheEvictsOldest(t *testing.T) {
	c := validation.NewCache(validation.CacheOptions{TTL: time.Minute, MaxEntries: 2}, logger.NewNop())
	ctx := context.Background()
	r := &seo.ValidationResult{ComplianceScore: 50}

	c.Set(ctx, "a", "cfg", r)
	time.Sleep(2 * time.Millisecond)
	c.Set(ctx, "b", "cfg", r)
	time.Sleep(2 * time.Millisecond)
	c.Set(ctx, "c", "cfg", r)

	_, ok := c.Get(ctx, "a", "cfg")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "c", "cfg")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "c", "other")
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, int64(1), st.Evictions)
	assert.Equal(t, 2, st.Entries)

	c.Flush()
	assert.Zero(t, c.Stats().Entries)
}

func TestContentHash(t *testing.T) {
	doc := seotest.Compliant()
	base := validation.ContentHash(doc, nil)
	assert.Equal(t, base, validation.ContentHash(doc.Clone(), nil))
	assert.NotEqual(t, base, validation.ContentHash(doc, []string{"x"}))

	doc.SecondaryKeywords = []string{"beans"}
	assert.NotEqual(t, base, validation.ContentHash(doc, nil))
}
