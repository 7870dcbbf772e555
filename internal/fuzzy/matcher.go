package fuzzy

import (
	"sort"
	"strings"
)

// MatchType identifies which pipeline stage produced a match's score.
type MatchType string

const (
	MatchTypeExact       MatchType = "exact"
	MatchTypeHonorific   MatchType = "honorific"
	MatchTypeNickname    MatchType = "nickname"
	MatchTypePhonetic    MatchType = "phonetic"
	MatchTypeTypo        MatchType = "typo"
)

// Match is the result of comparing two names.
type Match struct {
	Score     float64
	Matched   bool
	MatchType MatchType
}

// honorifics are politeness suffixes stripped from either side before re-comparing.
var honorifics = []string{
	"bhaisahab", "bhaiya", "bhayya", "didi", "akka", "anna",
	"bhai", "saab", "sahib", "ji", "sa",
}

// nicknames is a bidirectional lookup table of common Indian nickname pairs.
// Kept as one data table, apart from the matching logic; it is compiled in, so
// adding a pair means editing this map.
var nicknames = map[string]string{
	"raju":    "rahul",
	"sonu":    "saurabh",
	"abhi":    "abhishek",
	"sandy":   "sandeep",
	"vicky":   "vivek",
	"bunty":   "vijay",
	"pappu":   "prakash",
	"chintu":  "amit",
	"golu":    "gopal",
	"munna":   "manoj",
	"babu":    "balaji",
	"tinku":   "tarun",
	"lucky":   "lakshman",
	"guddu":   "govind",
	"gudiya":  "gita",
	"pinky":   "priya",
	"bubbly":  "babita",
	"rinku":   "rina",
	"raja":    "rajesh",
	"kanha":   "krishna",
	"bablu":   "babulal",
}

func init() {
	// Make the table bidirectional without duplicating entries by hand.
	rev := make(map[string]string, len(nicknames))
	for k, v := range nicknames {
		rev[v] = k
	}
	for k, v := range rev {
		if _, exists := nicknames[k]; !exists {
			nicknames[k] = v
		}
	}
}

// normalizeBase lower-cases and trims a name for comparison.
func normalizeBase(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stripHonorific removes a known honorific suffix/prefix token, returning the
// stripped form and whether one was found.
func stripHonorific(s string) (string, bool) {
	tokens := strings.Fields(s)
	if len(tokens) < 2 {
		return s, false
	}
	last := tokens[len(tokens)-1]
	for _, h := range honorifics {
		if last == h {
			return strings.Join(tokens[:len(tokens)-1], " "), true
		}
	}
	first := tokens[0]
	for _, h := range honorifics {
		if first == h {
			return strings.Join(tokens[1:], " "), true
		}
	}
	return s, false
}

// phoneticNormalize applies the collapse rules described in §4.B step 4.
func phoneticNormalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")

	replacements := []struct{ from, to string }{
		{"aa", "a"}, {"ee", "i"}, {"oo", "u"},
		{"ksh", "x"}, {"jn", "gy"}, {"gy", "gy"},
		{"bh", "b"}, {"dh", "d"}, {"th", "t"}, {"ph", "p"}, {"gh", "g"}, {"kh", "k"},
		{"sh", "s"}, {"w", "v"},
	}
	for _, r := range replacements {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	s = strings.TrimSuffix(s, "h")
	s = strings.TrimSuffix(s, "a")
	return s
}

// levenshtein computes classic edit distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// levenshteinScore scales edit distance by the longer string's length into [0,1].
func levenshteinScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein(a, b)
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		score = 0
	}
	return score
}

// MatchIndianName scores the similarity of query against candidate in [0,1],
// taking the maximum across the honorific/nickname/phonetic/typo pipeline.
// Returns nil if the best score is below threshold.
func MatchIndianName(query, candidate string, threshold float64) *Match {
	q := normalizeBase(query)
	c := normalizeBase(candidate)

	if q == "" || c == "" {
		return nil
	}

	best := Match{Score: 0, MatchType: MatchTypePhonetic}

	// 1. Exact match.
	if q == c {
		return &Match{Score: 1.0, Matched: true, MatchType: MatchTypeExact}
	}

	// 2. Honorific stripping, either side.
	qStripped, qHad := stripHonorific(q)
	cStripped, cHad := stripHonorific(c)
	if qHad || cHad {
		if qStripped == cStripped {
			best = updateBest(best, Match{Score: 1.0, MatchType: MatchTypeHonorific})
		} else {
			s := levenshteinScore(qStripped, cStripped)
			best = updateBest(best, Match{Score: s * 0.95, MatchType: MatchTypeHonorific})
		}
	}

	// 3. Nickname lookup (bidirectional), on the honorific-stripped forms.
	qBase := firstOrWhole(qStripped)
	cBase := firstOrWhole(cStripped)
	if nn, ok := nicknames[qBase]; ok && nn == cBase {
		best = updateBest(best, Match{Score: 0.92, MatchType: MatchTypeNickname})
	}
	if nn, ok := nicknames[cBase]; ok && nn == qBase {
		best = updateBest(best, Match{Score: 0.92, MatchType: MatchTypeNickname})
	}

	// 4. Phonetic normalization + scaled Levenshtein.
	qPhon := phoneticNormalize(qStripped)
	cPhon := phoneticNormalize(cStripped)
	phonScore := levenshteinScore(qPhon, cPhon)
	best = updateBest(best, Match{Score: phonScore, MatchType: MatchTypePhonetic})

	// 5. Transposition/typo tolerance: edit distance <= 1 on the phonetic form.
	if levenshtein(qPhon, cPhon) <= 1 && qPhon != "" && cPhon != "" {
		best = updateBest(best, Match{Score: 0.95, MatchType: MatchTypeTypo})
	}

	if best.Score > 1.0 {
		best.Score = 1.0
	}
	if best.Score < 0.0 {
		best.Score = 0.0
	}

	if best.Score >= threshold {
		best.Matched = true
		return &best
	}
	return nil
}

func updateBest(best, candidate Match) Match {
	if candidate.Score > best.Score {
		return candidate
	}
	return best
}

func firstOrWhole(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return s
	}
	return tokens[0]
}

// Candidate pairs a name with arbitrary caller data for ranked matching.
type Candidate struct {
	Name string
	Data any
}

// RankedMatch is a Candidate scored against a query.
type RankedMatch struct {
	Candidate Candidate
	Match     Match
}

// FindBestMatch returns the single highest-scoring candidate meeting threshold, or nil.
func FindBestMatch(query string, candidates []Candidate, threshold float64) *RankedMatch {
	all := FindAllMatches(query, candidates, threshold)
	if len(all) == 0 {
		return nil
	}
	return &all[0]
}

// FindAllMatches returns candidates meeting threshold, sorted by descending score.
func FindAllMatches(query string, candidates []Candidate, threshold float64) []RankedMatch {
	var out []RankedMatch
	for _, cand := range candidates {
		if m := MatchIndianName(query, cand.Name, threshold); m != nil {
			out = append(out, RankedMatch{Candidate: cand, Match: *m})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Match.Score > out[j].Match.Score
	})
	return out
}

// IsSamePerson reports whether a and b refer to the same person at the default
// threshold of 0.7, used by the conversation store to dedupe customer mentions.
func IsSamePerson(a, b string) bool {
	m := MatchIndianName(a, b, 0.7)
	return m != nil
}
