// Package subtitlefile implements external subtitle file discovery and
// parsing (spec.md §6), grounded on original_source's
// player/external_subtitle.rs: exact-name matching, language-tagged
// matching, and a keyword-based fuzzy fallback when neither of the first
// two finds anything.
package subtitlefile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedExtensions lists the subtitle formats this package can parse.
var SupportedExtensions = []string{"srt", "ass", "ssa", "vtt"}

// knownLanguageTags mirrors the original parser's language_codes list,
// used for the second-tier "exact name + language tag" match.
var knownLanguageTags = []string{"zh", "en", "chs", "cht", "zh-cn", "zh-tw", "ja", "ko", "chs-eng"}

// noiseTokens are release-metadata words that don't help identify a title
// and are excluded from fuzzy-match keyword scoring.
var noiseTokens = map[string]bool{
	"web": true, "dl": true, "ddp": true, "atmos": true, "h264": true, "h265": true,
	"mkv": true, "mp4": true, "avi": true, "1080p": true, "2160p": true, "720p": true,
	"480p": true, "bluray": true, "bdrip": true, "webrip": true, "x264": true, "x265": true,
	"aac": true, "ac3": true, "dts": true, "flac": true, "mp3": true,
}

// Candidate is a discovered subtitle file with enough metadata for the
// caller to choose and report which match tier found it.
type Candidate struct {
	Path       string
	Tier       MatchTier
	MatchScore int // keyword hits, only meaningful for TierFuzzy
	Keywords   int // total keywords considered, only meaningful for TierFuzzy
}

// MatchTier ranks how a Candidate was found, highest-confidence first.
type MatchTier int

const (
	TierExact MatchTier = iota
	TierLanguageTagged
	TierFuzzy
)

// Discover finds subtitle files plausibly associated with videoPath in its
// own directory, in the priority order of spec.md §6: exact stem match,
// then stem+language-tag match, then (only if neither finds anything) a
// fuzzy keyword match. Within each tier, filenames containing
// preferredLang (if non-empty) or "chs"/"zh" sort first, ahead of the
// fuzzy match score.
func Discover(videoPath string, preferredLang string) ([]Candidate, error) {
	dir := filepath.Dir(videoPath)
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	var candidates []Candidate
	for _, ext := range SupportedExtensions {
		p := filepath.Join(dir, stem+"."+ext)
		if fileExists(p) {
			candidates = append(candidates, Candidate{Path: p, Tier: TierExact})
		}
	}
	for _, lang := range knownLanguageTags {
		for _, ext := range SupportedExtensions {
			p := filepath.Join(dir, stem+"."+lang+"."+ext)
			if fileExists(p) {
				candidates = append(candidates, Candidate{Path: p, Tier: TierLanguageTagged})
			}
		}
	}

	if len(candidates) == 0 {
		fuzzy, err := fuzzyMatch(dir, stem)
		if err != nil {
			return nil, err
		}
		candidates = fuzzy
	}

	sortCandidates(candidates, preferredLang)
	return candidates, nil
}

func fuzzyMatch(dir, stem string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	keywords := extractKeywords(stem)
	threshold := len(keywords) / 2
	if threshold < 1 {
		threshold = 1
	}

	var out []Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !hasSubtitleExtension(name) {
			continue
		}
		lower := strings.ToLower(name)

		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				score++
			}
		}
		if score >= threshold {
			out = append(out, Candidate{
				Path:       filepath.Join(dir, name),
				Tier:       TierFuzzy,
				MatchScore: score,
				Keywords:   len(keywords),
			})
		}
	}
	return out, nil
}

// extractKeywords splits a filename on common release-naming separators
// and drops noise tokens and very short fragments, matching the original
// parser's extract_keywords.
func extractKeywords(stem string) []string {
	parts := strings.FieldsFunc(stem, func(r rune) bool {
		switch r {
		case '.', '-', '_', ' ', '[', ']', '(', ')':
			return true
		}
		return false
	})

	var keywords []string
	for _, part := range parts {
		if len(part) <= 2 {
			continue
		}
		if noiseTokens[strings.ToLower(part)] {
			continue
		}
		keywords = append(keywords, part)
	}

	if len(keywords) < 2 && len(stem) > 10 {
		keywords = append(keywords, stem[:10])
	}
	return keywords
}

func hasSubtitleExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range SupportedExtensions {
		if strings.HasSuffix(lower, "."+ext) {
			return true
		}
	}
	return false
}

// sortCandidates orders exact > language-tagged > fuzzy, and within a
// tier prefers preferredLang (or "chs"/"zh", matching the original's
// chinese-subtitle tie-break) when present in the filename.
func sortCandidates(candidates []Candidate, preferredLang string) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		aPreferred := containsLangHint(a.Path, preferredLang)
		bPreferred := containsLangHint(b.Path, preferredLang)
		if aPreferred != bPreferred {
			return aPreferred
		}
		if a.Tier == TierFuzzy && a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		return a.Path < b.Path
	})
}

func containsLangHint(path, preferredLang string) bool {
	lower := strings.ToLower(path)
	if preferredLang != "" && strings.Contains(lower, strings.ToLower(preferredLang)) {
		return true
	}
	return strings.Contains(lower, "chs") || strings.Contains(lower, "zh")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
