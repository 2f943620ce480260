package structure_test

import (
	"strings"
	"testing"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/seo/seotest"
	"content-optimizer-be/pkg/seo/structure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTake(t *testing.T) {
	fp, err := structure.Take(seotest.Compliant())
	require.NoError(t, err)
	assert.Equal(t, 3, fp.Paragraphs)
	assert.Equal(t, 2, fp.Headings[1])
	assert.Equal(t, 2, fp.TotalHeadings())
	assert.Equal(t, 1, fp.Images)
	assert.Positive(t, fp.TextLength)
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(body string) string
		rollback bool
		element  string
	}{
		{
			name:     "prose edit keeps change",
			mutate:   func(b string) string { return strings.Replace(b, "Fresh beans", "Freshly roasted beans", 1) },
			rollback: false,
		},
		{
			name:     "removed subheading rolls back",
			mutate:   func(b string) string { return strings.Replace(b, "<h2>Choosing Beans</h2>", "", 1) },
			rollback: true,
			element:  "h2",
		},
		{
			name:     "removed image rolls back",
			mutate:   func(b string) string { return strings.Replace(b, `<img src="shot.jpg" alt="espresso shot in a glass">`, "", 1) },
			rollback: true,
			element:  "img",
		},
		{
			name:     "added paragraph beyond tolerance rolls back",
			mutate:   func(b string) string { return b + "<p>One more paragraph.</p>" },
			rollback: true,
			element:  "p",
		},
		{
			name:     "added image is allowed",
			mutate:   func(b string) string { return b + `<img src="two.jpg" alt="espresso cup">` },
			rollback: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := structure.NewPreserver(10, 0.2, logger.NewNop())
			orig := seotest.Compliant()
			snap, err := p.Snapshot(orig, "pre_batch", 1)
			require.NoError(t, err)

			after := orig.Clone()
			after.Body = tt.mutate(after.Body)

			got, report, rolledBack, err := p.Guard(snap, after)
			require.NoError(t, err)
			assert.Equal(t, tt.rollback, rolledBack)
			assert.Equal(t, tt.rollback, report.HasMajor())
			if tt.rollback {
				assert.True(t, got.Equal(orig))
				var elements []string
				for _, v := range report.Violations {
					elements = append(elements, v.Element)
				}
				assert.Contains(t, elements, tt.element)
			} else {
				assert.True(t, got.Equal(after))
			}
		})
	}
}

func TestMinorViolations(t *testing.T) {
	p := structure.NewPreserver(10, 0.2, logger.NewNop())
	orig := seotest.Compliant()
	snap, err := p.Snapshot(orig, "pre_batch", 1)
	require.NoError(t, err)

	after := orig.Clone()
	after.Title = "A Completely Different Headline"
	report, err := p.Validate(snap, after)
	require.NoError(t, err)

	assert.False(t, report.HasMajor())
	require.Len(t, report.Minor(), 1)
	assert.Equal(t, "title", report.Minor()[0].Element)
}

func TestRollback(t *testing.T) {
	p := structure.NewPreserver(10, 0.2, logger.NewNop())
	orig := seotest.Compliant()
	snap, err := p.Snapshot(orig, "baseline", 0)
	require.NoError(t, err)

	first, err := p.Rollback(snap.ID)
	require.NoError(t, err)
	first.Title = "mutated copy"

	second, err := p.Rollback(snap.ID)
	require.NoError(t, err)
	assert.True(t, second.Equal(orig), "rollback must be repeatable and return an unaliased copy")

	_, err = p.Rollback("missing")
	assert.ErrorIs(t, err, structure.ErrSnapshotNotFound)
}

func TestSnapshotLimit(t *testing.T) {
	p := structure.NewPreserver(3, 0.2, logger.NewNop())
	var ids []string
	for i := 0; i < 5; i++ {
		s, err := p.Snapshot(seotest.Compliant(), "pass", i)
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	snaps := p.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, 2, snaps[0].PassNumber)
	assert.Equal(t, 4, snaps[2].PassNumber)

	_, ok := p.Get(ids[0])
	assert.False(t, ok)
	_, ok = p.Get(ids[4])
	assert.True(t, ok)
}

func TestGuardAfterEvictionUsesCallerSnapshot(t *testing.T) {
	p := structure.NewPreserver(1, 0.2, logger.NewNop())
	orig := seotest.Compliant()
	snap, err := p.Snapshot(orig, "pre_batch", 1)
	require.NoError(t, err)
	_, err = p.Snapshot(orig, "later", 2)
	require.NoError(t, err)

	broken := orig.Clone()
	broken.Body = "<p>All structure gone.</p>"
	got, _, rolledBack, err := p.Guard(snap, broken)
	require.NoError(t, err)
	assert.True(t, rolledBack)
	assert.True(t, got.Equal(orig))
}

func TestChecksum(t *testing.T) {
	doc := seotest.Compliant()
	sum := structure.Checksum(doc)
	assert.Len(t, sum, 64)
	assert.Equal(t, sum, structure.Checksum(doc.Clone()))
	assert.False(t, structure.DetectCorruption(doc, sum))

	doc.MetaDescription += "!"
	assert.True(t, structure.DetectCorruption(doc, sum))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, structure.Similarity("Espresso Guide", "espresso guide "))
	assert.Equal(t, 1.0, structure.Similarity("", ""))
	assert.InDelta(t, 0.75, structure.Similarity("abcd", "abce"), 0.001)
	assert.Less(t, structure.Similarity("Espresso Basics", "Tea"), structure.MinTitleSimilarity)
}
