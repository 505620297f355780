package ensemble

import (
	"sort"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/logger"
)

// Candidate is the text chosen for a page.
type Candidate struct {
	Method Method `json:"method" yaml:"method"`
	Text   string `json:"text" yaml:"text"`
	Score  int    `json:"score" yaml:"score"`
}

// NoCandidate is returned when no attempt produced usable text.
func NoCandidate() Candidate {
	return Candidate{Method: MethodNone}
}

// Selector picks the highest scoring valid attempt. Equal scores go to the
// method that comes first in the menu; methods outside the menu rank after
// it in lexical order.
type Selector struct {
	scorer Scorer
	rank   map[Method]int
	logger *logger.Logger
}

// breakdowner is implemented by scorers that can itemize a score.
type breakdowner interface {
	Breakdown(text string) ScoreBreakdown
}

// NewSelector creates a selector. A nil scorer means HeuristicScorer and an
// empty menu means DefaultMenu().
func NewSelector(scorer Scorer, menu []MenuEntry, log *logger.Logger) *Selector {
	if log == nil {
		log = logger.Get()
	}
	if scorer == nil {
		scorer = HeuristicScorer{}
	}
	if len(menu) == 0 {
		menu = DefaultMenu()
	}

	rank := make(map[Method]int, len(menu))
	for i, entry := range menu {
		rank[entry.Method] = i
	}

	return &Selector{scorer: scorer, rank: rank, logger: log}
}

// Select returns the best candidate among attempts, or NoCandidate.
func (s *Selector) Select(attempts []Attempt) Candidate {
	valid := make([]Attempt, 0, len(attempts))
	for _, a := range attempts {
		if a.Valid() {
			valid = append(valid, a)
		}
	}

	if len(valid) == 0 {
		return NoCandidate()
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return s.less(valid[i].Method, valid[j].Method)
	})

	var best Candidate
	for i, a := range valid {
		text := strings.TrimSpace(a.Text)
		score := s.score(a.Method, text)
		if i == 0 || score > best.Score {
			best = Candidate{Method: a.Method, Text: text, Score: score}
		}
	}

	return best
}

func (s *Selector) score(method Method, text string) int {
	log := s.logger.WithMethod(string(method))

	d, ok := s.scorer.(breakdowner)
	if !ok {
		score := s.scorer.Score(text)
		log.WithFields("score", score).Debug("Scored candidate")
		return score
	}

	b := d.Breakdown(text)
	log.WithFields(
		"score", b.Total(),
		"length", b.Length,
		"content", b.Content,
		"punctuation", b.Punctuation,
		"date_hint", b.DateHint,
		"noise_penalty", b.NoisePenalty,
	).Debug("Scored candidate")
	return b.Total()
}

func (s *Selector) less(a, b Method) bool {
	ra, aKnown := s.rank[a]
	rb, bKnown := s.rank[b]
	switch {
	case aKnown && bKnown:
		return ra < rb
	case aKnown != bKnown:
		return aKnown
	default:
		return a < b
	}
}
