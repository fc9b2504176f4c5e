// Package trust assigns a deterministic reliability weight to each document
// from static signals: the domain reputation table, official and academic
// suffixes, look-alike domains and the amount of extracted text.
package trust

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/ppiankov/newsguard/internal/model"
)

// Rationale tag prefixes.
const (
	TagNotExtracted = "not_extracted"
	TagAllowList    = "allowlist"
	TagOfficial     = "official_tld"
	TagAcademic     = "academic_tld"
	TagLowQuality   = "low_quality"
	TagLookalike    = "lookalike"
	TagMeta         = "meta_description"
	TagLength       = "length"
	TagBonusCapped  = "bonus_capped"
	TagPenaltyCap   = "penalty_capped"
)

const maxLookalikeDistance = 2

// Scorer computes trust weights. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	cfg        model.TrustConfig
	reliable   map[string]float64
	lowQuality []model.DomainRule
	outlets    []string
}

// NewScorer indexes the trust table in cfg.
func NewScorer(cfg model.TrustConfig) *Scorer {
	s := &Scorer{
		cfg:      cfg,
		reliable: make(map[string]float64, len(cfg.Table.Reliable)),
	}
	for _, rule := range cfg.Table.Reliable {
		d := normalizeDomain(rule.Domain)
		if d == "" {
			continue
		}
		s.reliable[d] = rule.Weight
		s.outlets = append(s.outlets, d)
	}
	sort.Strings(s.outlets)
	for _, rule := range cfg.Table.LowQuality {
		if p := strings.ToLower(strings.TrimSpace(rule.Domain)); p != "" {
			s.lowQuality = append(s.lowQuality, model.DomainRule{Domain: p, Weight: rule.Weight})
		}
	}
	return s
}

// TableVersion returns the version of the trust table in use.
func (s *Scorer) TableVersion() string {
	return s.cfg.Table.Version
}

// Score computes the trust weight of doc. Documents without usable text get
// weight 0.
func (s *Scorer) Score(doc model.Document) model.TrustScore {
	ts := model.TrustScore{Ref: doc.Ref()}
	if !doc.OK() {
		ts.Tags = []string{TagNotExtracted + ":" + string(doc.Status)}
		return ts
	}

	var tags []string
	host := normalizeDomain(doc.Domain)

	bonus := 0.0
	if domain, w, ok := s.allowListed(host); ok {
		bonus += w
		tags = append(tags, TagAllowList+":"+domain)
	}
	if suffix, ok := matchSuffix(host, s.cfg.Table.OfficialSuffixes); ok {
		bonus += s.cfg.OfficialBonus
		tags = append(tags, TagOfficial+":"+suffix)
	} else if suffix, ok := matchSuffix(host, s.cfg.Table.AcademicSuffixes); ok {
		bonus += s.cfg.AcademicBonus
		tags = append(tags, TagAcademic+":"+suffix)
	}
	if bonus > s.cfg.MaxBonus {
		bonus = s.cfg.MaxBonus
		tags = append(tags, TagBonusCapped)
	}

	penalty := 0.0
	for _, rule := range s.lowQuality {
		if matchesPattern(host, rule.Domain) {
			penalty += rule.Weight
			tags = append(tags, TagLowQuality+":"+rule.Domain)
		}
	}
	if outlet, ok := s.lookalike(host); ok {
		penalty += s.cfg.LookalikePenalty
		tags = append(tags, TagLookalike+":"+outlet)
	}
	if penalty > s.cfg.MaxPenalty {
		penalty = s.cfg.MaxPenalty
		tags = append(tags, TagPenaltyCap)
	}

	w := s.cfg.BaseWeight + bonus - penalty

	if doc.MetaDescription != "" && s.cfg.MetaBonus > 0 {
		w += s.cfg.MetaBonus
		tags = append(tags, TagMeta)
	}

	if lb := s.lengthBonus(doc.Text); lb > 0 {
		w += lb
		tags = append(tags, fmt.Sprintf("%s:+%.2f", TagLength, lb))
	}

	ts.Weight = round4(clamp(w, 0, 1))
	ts.Tags = uniqueSorted(tags)
	return ts
}

// lengthBonus grows linearly with text length up to the saturation point.
func (s *Scorer) lengthBonus(text string) float64 {
	if s.cfg.LengthSaturation <= 0 || s.cfg.MaxLengthBonus <= 0 {
		return 0
	}
	n := utf8.RuneCountInString(text)
	return math.Min(float64(n)/float64(s.cfg.LengthSaturation), 1) * s.cfg.MaxLengthBonus
}

// allowListed finds the reliable outlet host belongs to, exact or as a subdomain.
func (s *Scorer) allowListed(host string) (string, float64, bool) {
	for candidate := host; candidate != ""; candidate = parent(candidate) {
		if w, ok := s.reliable[candidate]; ok {
			return candidate, w, true
		}
	}
	return "", 0, false
}

// lookalike reports an allow-listed outlet whose registrable domain is within
// a small edit distance of host's without being the same.
func (s *Scorer) lookalike(host string) (string, bool) {
	if _, _, ok := s.allowListed(host); ok {
		return "", false
	}
	site := registrable(host)
	if utf8.RuneCountInString(site) < 6 {
		return "", false
	}
	for _, outlet := range s.outlets {
		d := levenshtein.ComputeDistance(site, registrable(outlet))
		if d > 0 && d <= maxLookalikeDistance {
			return outlet, true
		}
	}
	return "", false
}

// matchesPattern matches a low-quality pattern: ".blog" style patterns are
// suffixes, anything else is a domain matched exactly or as a parent.
func matchesPattern(host, pattern string) bool {
	if strings.HasPrefix(pattern, ".") {
		return strings.HasSuffix(host, pattern)
	}
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

func matchSuffix(host string, suffixes []string) (string, bool) {
	for _, suffix := range suffixes {
		suffix = strings.ToLower(strings.TrimSpace(suffix))
		if suffix == "" {
			continue
		}
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		if strings.HasSuffix(host, suffix) {
			return suffix, true
		}
	}
	return "", false
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

func parent(host string) string {
	i := strings.IndexByte(host, '.')
	if i < 0 {
		return ""
	}
	rest := host[i+1:]
	if !strings.Contains(rest, ".") {
		return ""
	}
	return rest
}

// secondLevel lists labels that sit under a two-letter country code, as in bbc.co.uk.
var secondLevel = map[string]bool{"co": true, "com": true, "ac": true, "gov": true, "org": true, "net": true, "edu": true, "nic": true}

// registrable approximates the registrable domain of host.
func registrable(host string) string {
	labels := strings.Split(host, ".")
	n := len(labels)
	if n <= 2 {
		return host
	}
	if len(labels[n-1]) == 2 && secondLevel[labels[n-2]] {
		return strings.Join(labels[n-3:], ".")
	}
	return strings.Join(labels[n-2:], ".")
}

func uniqueSorted(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	sort.Strings(tags)
	out := tags[:1]
	for _, t := range tags[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
