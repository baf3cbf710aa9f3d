package lang

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Index holds one element index per iterator group, in [Sweep.Groups]
// order.
type Index []int

// String returns the index tuple as "(i, j, ...)".
func (x Index) String() string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.Itoa(v)
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// group is a set of iterators advanced together.
type group struct {
	key    string
	iters  []*Iter
	length int
}

// Sweep enumerates the Cartesian product of a document's iterator groups.
//
// Unless the sweep was created with [WithSnapshot], every view is the
// document itself with its iterator indices set for that view. A view must
// be consumed before the next one is requested, and iterating two sweeps of
// one document at once is unsafe.
type Sweep struct {
	ctx    context.Context
	doc    *Document
	opts   options
	groups []group
}

// Sweep groups the iterators of d and validates that every group has
// members of one length. Iterators sharing a name form one group. Each
// anonymous iterator forms its own group, which copies of it made for
// insert replacements join.
func (d *Document) Sweep(ctx context.Context, opts ...Option) (*Sweep, error) {
	o := d.opts.with(opts...)
	iters := d.Iters()

	byKey := map[string]*group{}
	anon := map[uint64]string{}
	width := len(strconv.Itoa(len(iters)))

	for i, it := range iters {
		key := it.name
		if key == "" {
			if key = anon[it.tie]; key == "" {
				key = fmt.Sprintf("_%0*d", width, i)
				anon[it.tie] = key
			}
		}

		g, ok := byKey[key]
		if !ok {
			g = &group{key: key, length: it.Len()}
			byKey[key] = g
		}

		g.iters = append(g.iters, it)
	}

	s := &Sweep{ctx: ctx, doc: d, opts: o}

	for _, key := range sortedKeys(byKey) {
		g := byKey[key]

		for _, it := range g.iters {
			if it.Len() != g.length {
				lengths := make([]int, len(g.iters))
				for i, m := range g.iters {
					lengths[i] = m.Len()
				}

				return nil, &SweepError{Group: key, Lengths: lengths}
			}
		}

		s.groups = append(s.groups, *g)
	}

	return s, nil
}

// Groups returns the group keys in enumeration order. Anonymous groups have
// synthetic keys beginning with '_'.
func (s *Sweep) Groups() []string {
	keys := make([]string, len(s.groups))
	for i, g := range s.groups {
		keys[i] = g.key
	}

	sort.Strings(keys)

	return keys
}

// Len returns the number of views.
func (s *Sweep) Len() int {
	n := 1
	for _, g := range s.groups {
		n *= g.length
	}

	return n
}

// All returns an iterator over the views in odometer order: the last group
// varies fastest. A document without iterators has exactly one view.
// Iterator indices are cleared when the iteration ends.
func (s *Sweep) All() iter.Seq2[Index, *Document] {
	return func(yield func(Index, *Document) bool) {
		defer s.reset()

		total := s.Len()

		s.opts.logger.DebugContext(s.ctx, "sweep",
			slog.String("document", s.doc.name),
			slog.Any("groups", s.Groups()),
			slog.Int("views", total))

		idx := make(Index, len(s.groups))

		for range total {
			s.set(idx)

			view := s.doc
			if s.opts.snapshot {
				view = s.doc.Clone()
			}

			if !yield(append(Index(nil), idx...), view) {
				return
			}

			s.advance(idx)
		}
	}
}

// set selects idx on every iterator.
func (s *Sweep) set(idx Index) {
	for i, g := range s.groups {
		for _, it := range g.iters {
			it.SetIndex(idx[i])
		}
	}
}

// advance increments idx like an odometer.
func (s *Sweep) advance(idx Index) {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < s.groups[i].length {
			return
		}

		idx[i] = 0
	}
}

func (s *Sweep) reset() {
	for _, g := range s.groups {
		for _, it := range g.iters {
			it.SetIndex(-1)
		}
	}
}

// Fingerprint returns a hash of the canonical text of d, which identifies a
// sweep view by content.
func (d *Document) Fingerprint() uint64 {
	return xxh3.HashString(d.String())
}
