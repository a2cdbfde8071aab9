package reconstruct

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"

	"github.com/poiesic/conceptrag/core"
)

// ErrSourceRequired is returned when no chunk source is provided.
var ErrSourceRequired = errors.New("chunk source required")

// ChunkSource resolves the chunks of a document in position order.
// *index.Index satisfies it.
type ChunkSource interface {
	DocumentChunks(documentID string) []*core.Chunk
}

// Segment is one chunk of reconstructed context.
type Segment struct {
	DocumentId string
	ChunkId    string
	Position   int
	Text       string
	Score      float64 // Anchor score, or the best anchor score for neighbours
	Anchor     bool
	Tokens     int
}

// Reconstructor assembles context windows. It is stateless and safe for
// concurrent use.
type Reconstructor struct {
	source    ChunkSource
	estimator TokenEstimator
	logger    *slog.Logger
}

// Option configures a Reconstructor.
type Option func(*Reconstructor) error

// WithEstimator sets the token estimator. nil restores CharEstimator.
func WithEstimator(e TokenEstimator) Option {
	return func(r *Reconstructor) error {
		if e == nil {
			e = CharEstimator
		}
		r.estimator = e
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconstructor) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// New creates a reconstructor reading neighbours from source.
func New(source ChunkSource, opts ...Option) (*Reconstructor, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	r := &Reconstructor{
		source:    source,
		estimator: CharEstimator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "reconstructor")
	return r, nil
}

type docGroup struct {
	id       string
	order    int // first appearance in the ranked input
	best     float64
	segments map[int]*Segment // by position
}

// Reconstruct expands ranked chunks into ordered context segments.
// windowSize < 0 is treated as 0; tokenBudget <= 0 disables the budget.
// The result is empty only when ranked is empty.
func (r *Reconstructor) Reconstruct(ranked []core.RankedChunk, windowSize, tokenBudget int) []Segment {
	windowSize = max(windowSize, 0)

	groups := make(map[string]*docGroup)
	var order []*docGroup
	chunksOf := make(map[string][]*core.Chunk)

	for _, rc := range ranked {
		if rc.Chunk == nil {
			continue
		}
		anchor := rc.Chunk
		g, ok := groups[anchor.DocumentId]
		if !ok {
			g = &docGroup{id: anchor.DocumentId, order: len(order), best: rc.Score, segments: make(map[int]*Segment)}
			groups[anchor.DocumentId] = g
			order = append(order, g)
			chunksOf[anchor.DocumentId] = r.source.DocumentChunks(anchor.DocumentId)
		}
		g.best = max(g.best, rc.Score)

		r.place(g, anchor, rc.Score, true)

		chunks := chunksOf[anchor.DocumentId]
		for _, c := range chunks {
			if c.Position == anchor.Position || c.Position < anchor.Position-windowSize || c.Position > anchor.Position+windowSize {
				continue
			}
			r.place(g, c, rc.Score, false)
		}
	}

	slices.SortStableFunc(order, func(a, b *docGroup) int {
		if c := cmp.Compare(b.best, a.best); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	var out []Segment
	for _, g := range order {
		positions := make([]int, 0, len(g.segments))
		for p := range g.segments {
			positions = append(positions, p)
		}
		slices.Sort(positions)
		for _, p := range positions {
			out = append(out, *g.segments[p])
		}
	}

	if tokenBudget > 0 {
		out = r.fit(out, tokenBudget)
	}
	return out
}

// place records c in g. Anchors keep the best of their own scores; a
// neighbour takes the best score of the anchors whose window reaches it.
// A chunk that is both keeps anchor status.
func (r *Reconstructor) place(g *docGroup, c *core.Chunk, score float64, anchor bool) {
	seg, ok := g.segments[c.Position]
	if !ok {
		g.segments[c.Position] = &Segment{
			DocumentId: c.DocumentId,
			ChunkId:    c.Id,
			Position:   c.Position,
			Text:       c.Text,
			Score:      score,
			Anchor:     anchor,
			Tokens:     r.estimator(c.Text),
		}
		return
	}
	switch {
	case anchor && !seg.Anchor:
		seg.Anchor, seg.Score = true, score
	case anchor == seg.Anchor:
		seg.Score = max(seg.Score, score)
	}
}

// fit drops whole segments until the total fits budget: neighbours before
// anchors, then lower score, then later in the output. At least one segment
// always survives.
func (r *Reconstructor) fit(segments []Segment, budget int) []Segment {
	total := 0
	for _, s := range segments {
		total += s.Tokens
	}
	if total <= budget {
		return segments
	}

	victims := make([]int, len(segments))
	for i := range victims {
		victims[i] = i
	}
	slices.SortStableFunc(victims, func(a, b int) int {
		sa, sb := segments[a], segments[b]
		if sa.Anchor != sb.Anchor {
			if sa.Anchor {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(sa.Score, sb.Score); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})

	dropped := make(map[int]bool)
	for _, i := range victims {
		if total <= budget || len(dropped) == len(segments)-1 {
			break
		}
		dropped[i] = true
		total -= segments[i].Tokens
	}

	out := make([]Segment, 0, len(segments)-len(dropped))
	for i, s := range segments {
		if !dropped[i] {
			out = append(out, s)
		}
	}
	r.logger.Debug("context trimmed to budget",
		"budget", budget,
		"tokens", total,
		"dropped", len(dropped),
		"kept", len(out))
	return out
}

// Texts returns the text of each segment, in order.
func Texts(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Text
	}
	return out
}

// Sources returns the distinct document ids of segments in order of appearance.
func Sources(segments []Segment) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range segments {
		if _, ok := seen[s.DocumentId]; ok {
			continue
		}
		seen[s.DocumentId] = struct{}{}
		out = append(out, s.DocumentId)
	}
	return out
}
