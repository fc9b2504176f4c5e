package verdict

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/newsguard/internal/model"
)

type src struct {
	domain     string
	weight     float64
	stance     model.Stance
	confidence float64
	status     model.ExtractionStatus
	judge      model.JudgeStatus
}

// build turns compact source rows into trust scores and judgments, the way
// the pipeline produces them.
func build(rows []src) ([]model.TrustScore, []model.StanceJudgment) {
	var trust []model.TrustScore
	var judgments []model.StanceJudgment
	for i, r := range rows {
		status := r.status
		if status == "" {
			status = model.ExtractionOK
		}
		ref := model.DocumentRef{
			URL:    fmt.Sprintf("https://%s/story-%d", r.domain, i+1),
			Domain: r.domain,
			Rank:   i + 1,
			Status: status,
		}
		w := r.weight
		if status != model.ExtractionOK {
			w = 0
		}
		trust = append(trust, model.TrustScore{Ref: ref, Weight: w, Tags: []string{"allowlist:" + r.domain, "length:+0.10"}})
		if status != model.ExtractionOK {
			continue
		}
		judge := r.judge
		if judge == "" {
			judge = model.JudgeOK
		}
		if judge != model.JudgeOK {
			judgments = append(judgments, model.FailedJudgment(ref, judge, "failed"))
			continue
		}
		judgments = append(judgments, model.StanceJudgment{
			Ref:        ref,
			Stance:     r.stance,
			Confidence: r.confidence,
			Rationale:  "Rationale from " + r.domain + ".",
			Status:     model.JudgeOK,
		})
	}
	return trust, judgments
}

func claim(t *testing.T, text string) model.Claim {
	t.Helper()
	c, err := model.NewClaim(text)
	require.NoError(t, err)
	return c
}

func defaultAggregator() *Aggregator {
	return New(model.DefaultConfig().Verdict)
}

func TestAggregate_VaccinesScenario(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "blog.example", weight: 0.2, stance: model.StanceSupports, confidence: 0.6},
		{domain: "reuters.com", weight: 0.8, stance: model.StanceRefutes, confidence: 0.9},
		{domain: "who.int", weight: 0.8, stance: model.StanceRefutes, confidence: 0.9},
		{domain: "nature.com", weight: 0.8, stance: model.StanceRefutes, confidence: 0.9},
	})

	v := defaultAggregator().Aggregate(claim(t, "Vaccines cause autism"), trust, judgments)

	assert.Equal(t, model.LabelUnreliable, v.Label)
	// raw = 100 * (0.12 - 2.16) / 2.6 = -78.46
	assert.InDelta(t, 10.77, v.Score, 0.001)
	require.Len(t, v.TopSources, 4)
	for i, want := range []string{"reuters.com", "who.int", "nature.com"} {
		assert.Contains(t, v.TopSources[i].URL, want)
		assert.Equal(t, model.StanceRefutes, v.TopSources[i].Stance)
	}
	assert.Contains(t, v.TopSources[3].URL, "blog.example")
	assert.Contains(t, v.Explanation, "contradicts")
	assert.Contains(t, v.Explanation, "All 4 sources were read and judged.")
	assert.Equal(t, 4, v.Coverage.Usable)
}

func TestAggregate_NoCandidates(t *testing.T) {
	v := defaultAggregator().Aggregate(claim(t, "Anything"), nil, nil)

	assert.Equal(t, model.LabelNotEnoughEvidence, v.Label)
	assert.Zero(t, v.Score)
	assert.NotNil(t, v.TopSources)
	assert.Empty(t, v.TopSources)
	assert.Contains(t, v.Explanation, "no sources")
}

func TestAggregate_AllExtractionFailed(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", status: model.ExtractionFetchFailed},
		{domain: "b.com", status: model.ExtractionParseFailed},
		{domain: "c.com", status: model.ExtractionExcluded},
	})
	require.Empty(t, judgments)

	v := defaultAggregator().Aggregate(claim(t, "Anything"), trust, judgments)

	assert.Equal(t, model.LabelNotEnoughEvidence, v.Label)
	assert.Zero(t, v.Score)
	assert.Empty(t, v.TopSources)
	assert.Equal(t, 3, v.Coverage.Candidates)
	assert.Equal(t, 2, v.Coverage.Unreadable)
	assert.Equal(t, 1, v.Coverage.Excluded)
	assert.Contains(t, v.Explanation, "2 of 3 sources could not be read")
}

func TestAggregate_AllJudgmentsFailed(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", weight: 0.9, judge: model.JudgeModelError},
		{domain: "b.com", weight: 0.9, judge: model.JudgeMalformedOutput},
	})

	v := defaultAggregator().Aggregate(claim(t, "Anything"), trust, judgments)

	assert.Equal(t, model.LabelNotEnoughEvidence, v.Label)
	assert.Zero(t, v.Score)
	assert.Equal(t, 2, v.Coverage.JudgeFailures)
	assert.Contains(t, v.Explanation, "2 could not be judged")
}

func TestAggregate_EvenSplitIsMixed(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", weight: 0.5, stance: model.StanceSupports, confidence: 0.8},
		{domain: "b.com", weight: 0.5, stance: model.StanceSupports, confidence: 0.8},
		{domain: "c.com", weight: 0.5, stance: model.StanceSupports, confidence: 0.8},
		{domain: "d.com", weight: 0.75, stance: model.StanceRefutes, confidence: 0.8},
		{domain: "e.com", weight: 0.75, stance: model.StanceRefutes, confidence: 0.8},
	})

	v := defaultAggregator().Aggregate(claim(t, "Anything"), trust, judgments)

	assert.Equal(t, model.LabelMixed, v.Label)
	assert.InDelta(t, 50, v.Score, 0.001)
	assert.Len(t, v.TopSources, 5)
}

func TestAggregate_UnrelatedDominatedIsNotEnoughEvidence(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", weight: 0.8, stance: model.StanceUnrelated, confidence: 0.9},
		{domain: "b.com", weight: 0.8, stance: model.StanceUnrelated, confidence: 0.9},
		{domain: "c.com", weight: 0.3, stance: model.StanceSupports, confidence: 0.5},
	})

	v := defaultAggregator().Aggregate(claim(t, "Anything"), trust, judgments)

	assert.Equal(t, model.LabelNotEnoughEvidence, v.Label)
	assert.Greater(t, v.Score, 35.0)
	assert.Less(t, v.Score, 65.0)
}

func TestAggregate_Reliable(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", weight: 0.9, stance: model.StanceSupports, confidence: 0.9},
		{domain: "b.com", weight: 0.7, stance: model.StanceSupports, confidence: 0.8},
	})

	v := defaultAggregator().Aggregate(claim(t, "Anything"), trust, judgments)
	assert.Equal(t, model.LabelReliable, v.Label)
	assert.Contains(t, v.Explanation, "supports the claim")
}

func TestLabel_Thresholds(t *testing.T) {
	a := defaultAggregator()

	tests := []struct {
		score    float64
		sup, ref float64
		want     model.Label
	}{
		{65, 1, 0, model.LabelReliable},
		{64.99, 1, 1, model.LabelMixed},
		{35, 0, 1, model.LabelUnreliable},
		{35.01, 1, 1, model.LabelMixed},
		{50, 1, 0.5, model.LabelMixed},
		{50, 1, 0.49, model.LabelNotEnoughEvidence},
		{50, 0, 0, model.LabelNotEnoughEvidence},
		{100, 0, 0, model.LabelReliable},
		{0, 0, 0, model.LabelUnreliable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.label(tt.score, tt.sup, tt.ref), "score=%v sup=%v ref=%v", tt.score, tt.sup, tt.ref)
	}
}

func TestAggregate_TopSourcesOrderAndCap(t *testing.T) {
	rows := make([]src, 8)
	for i := range rows {
		rows[i] = src{domain: fmt.Sprintf("s%d.com", i), weight: 0.5, stance: model.StanceSupports, confidence: 0.5}
	}
	rows[6].confidence = 0.9
	trust, judgments := build(rows)

	v := defaultAggregator().Aggregate(claim(t, "Anything"), trust, judgments)

	require.Len(t, v.TopSources, 5)
	assert.Contains(t, v.TopSources[0].URL, "s6.com")
	// Equal strength falls back to retrieval rank.
	assert.Contains(t, v.TopSources[1].URL, "s0.com")
	assert.Contains(t, v.TopSources[2].URL, "s1.com")
}

func TestAggregate_ZeroWeightIsNotUsable(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", weight: 0, stance: model.StanceSupports, confidence: 1},
		{domain: "b.com", weight: 0.6, stance: model.StanceRefutes, confidence: 0.9},
	})

	v := defaultAggregator().Aggregate(claim(t, "Anything"), trust, judgments)

	assert.Equal(t, 1, v.Coverage.Usable)
	require.Len(t, v.TopSources, 1)
	assert.Contains(t, v.TopSources[0].URL, "b.com")
}

func TestAggregate_MissingJudgmentCountsAsFailure(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", weight: 0.7, stance: model.StanceSupports, confidence: 0.8},
		{domain: "b.com", weight: 0.7, stance: model.StanceSupports, confidence: 0.8},
	})
	judgments = judgments[:1]

	v := defaultAggregator().Aggregate(claim(t, "Anything"), trust, judgments)

	assert.Equal(t, 2, v.Coverage.Extracted)
	assert.Equal(t, 1, v.Coverage.Judged)
	assert.Equal(t, 1, v.Coverage.JudgeFailures)
	assert.Equal(t, 1, v.Coverage.Usable)
	assert.Contains(t, v.Explanation, "1 could not be judged")
	assert.NotContains(t, v.Explanation, "All 2 sources were read")
}

func TestAggregate_Deterministic(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", weight: 0.7, stance: model.StanceSupports, confidence: 0.6},
		{domain: "b.com", weight: 0.7, stance: model.StanceRefutes, confidence: 0.6},
		{domain: "c.com", weight: 0.4, stance: model.StanceUnrelated, confidence: 0.9},
		{domain: "d.com", status: model.ExtractionFetchFailed},
	})
	a := defaultAggregator()
	c := claim(t, "Anything")

	first := a.Aggregate(c, trust, judgments)
	want, err := json.Marshal(first)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		got, err := json.Marshal(a.Aggregate(c, trust, judgments))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestAggregate_MonotonicInSupportConfidence(t *testing.T) {
	a := defaultAggregator()
	c := claim(t, "Anything")

	prev := -1.0
	for conf := 0.0; conf <= 1.0; conf += 0.1 {
		trust, judgments := build([]src{
			{domain: "a.com", weight: 0.6, stance: model.StanceSupports, confidence: conf},
			{domain: "b.com", weight: 0.8, stance: model.StanceRefutes, confidence: 0.7},
			{domain: "c.com", weight: 0.3, stance: model.StanceUnrelated, confidence: 0.5},
		})
		v := a.Aggregate(c, trust, judgments)
		assert.GreaterOrEqual(t, v.Score, prev)
		prev = v.Score
	}
}

func TestAggregate_ScoreInRange(t *testing.T) {
	a := defaultAggregator()
	c := claim(t, "Anything")
	stances := []model.Stance{model.StanceSupports, model.StanceRefutes, model.StanceUnrelated, model.StanceUnknown}

	for i := 0; i < 64; i++ {
		var rows []src
		for k := 0; k < 1+i%7; k++ {
			rows = append(rows, src{
				domain:     fmt.Sprintf("d%d.com", k),
				weight:     float64((i+k)%11) / 10,
				stance:     stances[(i*k+k)%4],
				confidence: float64((i*3+k)%11) / 10,
			})
		}
		trust, judgments := build(rows)
		v := a.Aggregate(c, trust, judgments)
		assert.GreaterOrEqual(t, v.Score, 0.0)
		assert.LessOrEqual(t, v.Score, 100.0)
		assert.LessOrEqual(t, len(v.TopSources), DefaultTopSources)
	}
}

func TestAggregate_RationaleTruncated(t *testing.T) {
	trust, judgments := build([]src{
		{domain: "a.com", weight: 0.9, stance: model.StanceSupports, confidence: 0.9},
	})
	judgments[0].Rationale = "word " + fmt.Sprintf("%0300d", 0)

	a := New(model.VerdictConfig{RationaleChars: 40})
	v := a.Aggregate(claim(t, "Anything"), trust, judgments)
	assert.Contains(t, v.Explanation, "...")
	assert.NotContains(t, v.Explanation, fmt.Sprintf("%0300d", 0))
}

func TestNew_Defaults(t *testing.T) {
	a := New(model.VerdictConfig{})
	assert.Equal(t, DefaultReliableAt, a.reliableAt)
	assert.Equal(t, DefaultUnreliableAt, a.unreliableAt)
	assert.Equal(t, DefaultMixedBalance, a.mixedBalance)
	assert.Equal(t, DefaultTopSources, a.topSources)
}
