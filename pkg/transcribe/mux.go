package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidPattern is returned when registering a malformed engine
// id pattern.
var ErrInvalidPattern = errors.New("transcribe: invalid engine pattern")

// Opener constructs an Engine for a resolved engine id.
type Opener interface {
	OpenEngine(ctx context.Context, id string, cfg Config) (Engine, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, id string, cfg Config) (Engine, error)

// OpenEngine calls f.
func (f OpenerFunc) OpenEngine(ctx context.Context, id string, cfg Config) (Engine, error) {
	return f(ctx, id, cfg)
}

// Mux routes engine ids to registered openers. Ids are /-separated
// paths; patterns may use "+" to match one segment and a trailing "#"
// to match the rest, so a backend registers once ("whisper/#") and
// receives every model id under it. Exact segments win over "+",
// which wins over "#".
type Mux struct {
	mu   sync.RWMutex
	root *muxNode
}

type muxNode struct {
	children map[string]*muxNode
	any      *muxNode // "+"
	rest     *Opener  // trailing "#"
	opener   *Opener
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{root: &muxNode{}}
}

// Register binds pattern to an opener. A later registration for the
// same pattern replaces the earlier one.
func (m *Mux) Register(pattern string, o Opener) error {
	if pattern == "" || o == nil {
		return fmt.Errorf("%w: empty pattern or nil opener", ErrInvalidPattern)
	}
	segs := strings.Split(pattern, "/")
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.root
	for i, seg := range segs {
		switch seg {
		case "#":
			if i != len(segs)-1 {
				return fmt.Errorf("%w: %q (# must be last)", ErrInvalidPattern, pattern)
			}
			n.rest = &o
			return nil
		case "+":
			if n.any == nil {
				n.any = &muxNode{}
			}
			n = n.any
		default:
			if n.children == nil {
				n.children = make(map[string]*muxNode)
			}
			ch, ok := n.children[seg]
			if !ok {
				ch = &muxNode{}
				n.children[seg] = ch
			}
			n = ch
		}
	}
	n.opener = &o
	return nil
}

func (n *muxNode) lookup(segs []string) *Opener {
	if len(segs) == 0 {
		if n.opener != nil {
			return n.opener
		}
		return n.rest
	}
	if ch, ok := n.children[segs[0]]; ok {
		if o := ch.lookup(segs[1:]); o != nil {
			return o
		}
	}
	if n.any != nil {
		if o := n.any.lookup(segs[1:]); o != nil {
			return o
		}
	}
	return n.rest
}

// Open resolves id and constructs an engine through the matched
// opener.
func (m *Mux) Open(ctx context.Context, id string, cfg Config) (Engine, error) {
	m.mu.RLock()
	o := m.root.lookup(strings.Split(id, "/"))
	m.mu.RUnlock()
	if o == nil {
		return nil, fmt.Errorf("%w: %q", ErrEngineNotFound, id)
	}
	slog.Debug("transcribe: opening engine", "id", id)
	return (*o).OpenEngine(ctx, id, cfg)
}

// Patterns lists the registered patterns, sorted.
func (m *Mux) Patterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	m.root.walk("", &out)
	sort.Strings(out)
	return out
}

func (n *muxNode) walk(prefix string, out *[]string) {
	if n.opener != nil {
		*out = append(*out, strings.TrimPrefix(prefix, "/"))
	}
	if n.rest != nil {
		*out = append(*out, strings.TrimPrefix(prefix+"/#", "/"))
	}
	for seg, ch := range n.children {
		ch.walk(prefix+"/"+seg, out)
	}
	if n.any != nil {
		n.any.walk(prefix+"/+", out)
	}
}

// DefaultMux routes the built-in backends. Backend files register
// themselves in init.
var DefaultMux = NewMux()

func mustRegister(pattern string, o Opener) {
	if err := DefaultMux.Register(pattern, o); err != nil {
		panic(err)
	}
}

// Register binds pattern to an opener on the default mux.
func Register(pattern string, o Opener) error {
	return DefaultMux.Register(pattern, o)
}

// Open resolves id on the default mux.
func Open(ctx context.Context, id string, cfg Config) (Engine, error) {
	return DefaultMux.Open(ctx, id, cfg)
}

// Patterns lists the patterns registered on the default mux.
func Patterns() []string {
	return DefaultMux.Patterns()
}
