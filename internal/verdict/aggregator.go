// Package verdict folds per-source trust weights and stance judgments into a
// single credibility verdict.
//
// The score is the trust-weighted mean of signed, confidence-scaled stances,
// mapped from [-100,100] onto [0,100]:
//
//	raw   = 100 * Σ(wᵢ·sᵢ·cᵢ) / Σwᵢ
//	score = (raw + 100) / 2
//
// where s is +1 for supports, -1 for refutes and 0 otherwise. Only sources
// with a positive trust weight and a successful judgment count.
package verdict

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/newsguard/internal/model"
)

// Fallbacks for a zero VerdictConfig.
const (
	DefaultReliableAt     = 65.0
	DefaultUnreliableAt   = 35.0
	DefaultMixedBalance   = 0.5
	DefaultTopSources     = 5
	DefaultRationaleChars = 220
)

// Aggregator produces verdicts. It holds no mutable state.
type Aggregator struct {
	reliableAt     float64
	unreliableAt   float64
	mixedBalance   float64
	topSources     int
	rationaleChars int
}

// New creates an Aggregator, filling zero fields of cfg with defaults.
func New(cfg model.VerdictConfig) *Aggregator {
	a := &Aggregator{
		reliableAt:     cfg.ReliableAt,
		unreliableAt:   cfg.UnreliableAt,
		mixedBalance:   cfg.MixedBalance,
		topSources:     cfg.TopSources,
		rationaleChars: cfg.RationaleChars,
	}
	if a.reliableAt <= 0 {
		a.reliableAt = DefaultReliableAt
	}
	if a.unreliableAt <= 0 {
		a.unreliableAt = DefaultUnreliableAt
	}
	if a.mixedBalance <= 0 {
		a.mixedBalance = DefaultMixedBalance
	}
	if a.topSources <= 0 {
		a.topSources = DefaultTopSources
	}
	if a.rationaleChars <= 0 {
		a.rationaleChars = DefaultRationaleChars
	}
	return a
}

// evidence is one usable source: positive trust and a successful judgment.
type evidence struct {
	trust    model.TrustScore
	judgment model.StanceJudgment
}

func (e evidence) strength() float64 {
	return e.trust.Weight * e.judgment.Confidence
}

// Aggregate returns the verdict for claim over the full evidence set. trust
// holds one score per retrieved document; judgments holds one entry per
// extracted document. The result depends only on its inputs.
func (a *Aggregator) Aggregate(claim model.Claim, trust []model.TrustScore, judgments []model.StanceJudgment) model.Verdict {
	cov := Coverage(trust, judgments)
	if strings.TrimSpace(claim.Text) == "" {
		return a.NotEnoughEvidence("The claim is empty, so there was nothing to check.", cov)
	}

	usable := usableEvidence(trust, judgments)
	cov.Usable = len(usable)
	if len(usable) == 0 {
		return a.NotEnoughEvidence(emptyReason(cov), cov)
	}

	var num, den, supportW, refuteW float64
	for _, e := range usable {
		w := e.trust.Weight
		num += w * e.judgment.Stance.Sign() * e.judgment.Confidence
		den += w
		switch e.judgment.Stance {
		case model.StanceSupports:
			supportW += w
		case model.StanceRefutes:
			refuteW += w
		}
	}

	raw := 100 * num / den
	score := round2(clamp((raw+100)/2, 0, 100))
	label := a.label(score, supportW, refuteW)

	sort.SliceStable(usable, func(i, j int) bool {
		si, sj := usable[i].strength(), usable[j].strength()
		if si != sj {
			return si > sj
		}
		ri, rj := usable[i].trust.Ref.Rank, usable[j].trust.Ref.Rank
		if ri != rj {
			return ri < rj
		}
		return usable[i].trust.Ref.URL < usable[j].trust.Ref.URL
	})
	top := usable[:min(len(usable), a.topSources)]

	sources := make([]model.SourceRef, 0, len(top))
	for _, e := range top {
		sources = append(sources, model.SourceRef{
			URL:        e.trust.Ref.URL,
			Title:      e.trust.Ref.Title,
			Weight:     e.trust.Weight,
			Stance:     e.judgment.Stance,
			Confidence: e.judgment.Confidence,
		})
	}

	return model.Verdict{
		Label:       label,
		Score:       score,
		Explanation: a.explain(label, score, usable, top, cov),
		TopSources:  sources,
		Coverage:    cov,
	}
}

// NotEnoughEvidence builds the terminal verdict used when no usable evidence
// exists, including when retrieval itself failed.
func (a *Aggregator) NotEnoughEvidence(reason string, cov model.Coverage) model.Verdict {
	return model.Verdict{
		Label:       model.LabelNotEnoughEvidence,
		Score:       0,
		Explanation: "Not enough evidence. " + reason,
		TopSources:  []model.SourceRef{},
		Coverage:    cov,
	}
}

// label applies the thresholds. Between them, a claim is Mixed only when
// both stances are present and the lighter side carries at least
// mixedBalance of the heavier side's trust weight.
func (a *Aggregator) label(score, supportW, refuteW float64) model.Label {
	switch {
	case score >= a.reliableAt:
		return model.LabelReliable
	case score <= a.unreliableAt:
		return model.LabelUnreliable
	case supportW > 0 && refuteW > 0 && math.Min(supportW, refuteW)/math.Max(supportW, refuteW) >= a.mixedBalance:
		return model.LabelMixed
	default:
		return model.LabelNotEnoughEvidence
	}
}

// Coverage counts outcomes across the evidence set. Usable is filled in by
// Aggregate.
func Coverage(trust []model.TrustScore, judgments []model.StanceJudgment) model.Coverage {
	cov := model.Coverage{Candidates: len(trust), Judged: len(judgments)}
	judged := make(map[string]bool, len(judgments))
	for _, j := range judgments {
		judged[j.Ref.URL] = true
		if j.Status != model.JudgeOK {
			cov.JudgeFailures++
		}
	}
	for _, t := range trust {
		switch t.Ref.Status {
		case model.ExtractionOK:
			cov.Extracted++
			// A readable document with no judgment at all was never judged.
			if !judged[t.Ref.URL] {
				cov.JudgeFailures++
			}
		case model.ExtractionExcluded:
			cov.Excluded++
		default:
			cov.Unreadable++
		}
	}
	return cov
}

func usableEvidence(trust []model.TrustScore, judgments []model.StanceJudgment) []evidence {
	byURL := make(map[string]model.StanceJudgment, len(judgments))
	for _, j := range judgments {
		byURL[j.Ref.URL] = j
	}

	var usable []evidence
	for _, t := range trust {
		j, ok := byURL[t.Ref.URL]
		if !ok || t.Weight <= 0 || j.Status != model.JudgeOK {
			continue
		}
		usable = append(usable, evidence{trust: t, judgment: j})
	}
	return usable
}

func emptyReason(cov model.Coverage) string {
	switch {
	case cov.Candidates == 0:
		return "The search returned no sources for this claim."
	case cov.Extracted == 0:
		return fmt.Sprintf("None of the %d retrieved sources could be read. %s", cov.Candidates, coverageNote(cov))
	default:
		return fmt.Sprintf("None of the %d readable sources could be judged. %s", cov.Extracted, coverageNote(cov))
	}
}

var summaries = map[model.Label]string{
	model.LabelReliable:          "The available evidence supports the claim",
	model.LabelUnreliable:        "The available evidence contradicts the claim",
	model.LabelMixed:             "Sources disagree about the claim",
	model.LabelNotEnoughEvidence: "The evidence is too weak or off-topic to decide",
}

func (a *Aggregator) explain(label model.Label, score float64, usable, top []evidence, cov model.Coverage) string {
	counts := map[model.Stance]int{}
	for _, e := range usable {
		counts[e.judgment.Stance]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (score %.2f/100). ", summaries[label], score)
	fmt.Fprintf(&b, "Of %d usable sources, %d support, %d refute and %d are unrelated or unclear.",
		len(usable), counts[model.StanceSupports], counts[model.StanceRefutes],
		counts[model.StanceUnrelated]+counts[model.StanceUnknown])

	for _, e := range top {
		fmt.Fprintf(&b, "\n- %s %s (confidence %.2f, trust %.2f", displayName(e.trust.Ref), e.judgment.Stance, e.judgment.Confidence, e.trust.Weight)
		if tags := signalTags(e.trust.Tags); tags != "" {
			b.WriteString("; " + tags)
		}
		b.WriteString(")")
		if r := strings.TrimSpace(e.judgment.Rationale); r != "" {
			b.WriteString(": " + truncate(r, a.rationaleChars))
		}
	}

	b.WriteString("\n" + coverageNote(cov))
	return b.String()
}

func coverageNote(cov model.Coverage) string {
	var parts []string
	if cov.Unreadable > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d sources could not be read", cov.Unreadable, cov.Candidates))
	}
	if cov.Excluded > 0 {
		parts = append(parts, fmt.Sprintf("%d were excluded as too short or disallowed", cov.Excluded))
	}
	if cov.JudgeFailures > 0 {
		parts = append(parts, fmt.Sprintf("%d could not be judged", cov.JudgeFailures))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("All %d sources were read and judged.", cov.Candidates)
	}
	note := strings.Join(parts, "; ")
	return strings.ToUpper(note[:1]) + note[1:] + "."
}

// signalTags keeps the domain-level trust signals; length and meta tags add
// little to an explanation.
func signalTags(tags []string) string {
	var keep []string
	for _, t := range tags {
		if strings.HasPrefix(t, "length:") || t == "meta_description" {
			continue
		}
		keep = append(keep, t)
	}
	return strings.Join(keep, ", ")
}

func displayName(ref model.DocumentRef) string {
	if ref.Domain != "" {
		return ref.Domain
	}
	return ref.URL
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)[:n]
	return strings.TrimSpace(string(r)) + "..."
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
