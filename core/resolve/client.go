package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/kilianp07/manifests/core/header"
	"github.com/kilianp07/manifests/core/reference"
)

// Method names the tier that produced a client match.
type Method string

const (
	MethodNone         Method = "none"
	MethodExactRaw     Method = "exact_raw"
	MethodExactCanon   Method = "exact_canonical"
	MethodContainment  Method = "containment"
	MethodTokenOverlap Method = "token_overlap"
)

// UnknownClient is the canonical name reported when nothing matches.
const UnknownClient = "UNKNOWN"

// ClientResult is the outcome of resolving one counterparty name.
type ClientResult struct {
	CanonicalName string
	Found         bool
	Method        Method
	// Score is the token-overlap score for MethodTokenOverlap, 1 otherwise.
	Score  float64
	Active bool
}

type clientRef struct {
	ref       reference.Client
	raw       string
	canonical string
	tokens    map[string]struct{}
}

// ClientResolver applies tiered matching over a fixed reference list:
// exact raw name, exact canonical name, containment, then token overlap.
// The first tier producing a hit wins.
type ClientResolver struct {
	refs    []clientRef
	byRaw   map[string]int
	byCanon map[string]int
}

// NewClientResolver indexes refs. Reference order is significant: it breaks
// ties in the containment and token-overlap tiers.
func NewClientResolver(refs []reference.Client) *ClientResolver {
	r := &ClientResolver{
		refs:    make([]clientRef, 0, len(refs)),
		byRaw:   make(map[string]int, len(refs)),
		byCanon: make(map[string]int, len(refs)),
	}
	for _, c := range refs {
		cr := clientRef{ref: c, raw: header.Normalize(c.RawName), canonical: header.Normalize(c.CanonicalName)}
		cr.tokens = tokenSet(cr.raw)
		for tok := range tokenSet(cr.canonical) {
			cr.tokens[tok] = struct{}{}
		}
		idx := len(r.refs)
		r.refs = append(r.refs, cr)
		if _, ok := r.byRaw[cr.raw]; !ok && cr.raw != "" {
			r.byRaw[cr.raw] = idx
		}
		if _, ok := r.byCanon[cr.canonical]; !ok && cr.canonical != "" {
			r.byCanon[cr.canonical] = idx
		}
	}
	return r
}

// LoadClientResolver reads the reference list from store.
func LoadClientResolver(ctx context.Context, store reference.ClientStore) (*ClientResolver, error) {
	refs, err := store.Clients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return NewClientResolver(refs), nil
}

// Len returns the number of references.
func (r *ClientResolver) Len() int { return len(r.refs) }

// Resolve matches a single name.
func (r *ClientResolver) Resolve(name string) ClientResult {
	key := header.Normalize(name)
	if key == "" {
		return notFoundClient()
	}
	if i, ok := r.byRaw[key]; ok {
		return r.hit(i, MethodExactRaw, 1)
	}
	if i, ok := r.byCanon[key]; ok {
		return r.hit(i, MethodExactCanon, 1)
	}
	for i, ref := range r.refs {
		if contains(key, ref.raw) || contains(key, ref.canonical) {
			return r.hit(i, MethodContainment, 1)
		}
	}
	input := tokenSet(key)
	best, bestScore := -1, 0.0
	for i, ref := range r.refs {
		score := TokenOverlap(input, ref.tokens)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return notFoundClient()
	}
	return r.hit(best, MethodTokenOverlap, bestScore)
}

// ResolveMany resolves every distinct name once and returns a result per
// input value.
func (r *ClientResolver) ResolveMany(names []string) map[string]ClientResult {
	out := make(map[string]ClientResult, len(names))
	for _, n := range names {
		if _, ok := out[n]; ok {
			continue
		}
		out[n] = r.Resolve(n)
	}
	return out
}

func (r *ClientResolver) hit(i int, m Method, score float64) ClientResult {
	ref := r.refs[i].ref
	name := strings.TrimSpace(ref.CanonicalName)
	if name == "" {
		name = strings.TrimSpace(ref.RawName)
	}
	return ClientResult{CanonicalName: name, Found: true, Method: m, Score: score, Active: ref.Active}
}

func notFoundClient() ClientResult {
	return ClientResult{CanonicalName: UnknownClient, Method: MethodNone}
}

func contains(input, ref string) bool {
	if ref == "" {
		return false
	}
	return strings.Contains(ref, input) || strings.Contains(input, ref)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TokenOverlap returns |input ∩ ref| / |input|. It is 0 when input is empty.
func TokenOverlap(input, ref map[string]struct{}) float64 {
	if len(input) == 0 {
		return 0
	}
	shared := 0
	for tok := range input {
		if _, ok := ref[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(input))
}

// Score is TokenOverlap over the normalized whitespace tokens of two names.
func Score(input, ref string) float64 {
	return TokenOverlap(tokenSet(header.Normalize(input)), tokenSet(header.Normalize(ref)))
}
