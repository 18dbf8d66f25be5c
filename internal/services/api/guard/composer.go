package guard

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type Mode int

const (
	AND Mode = iota
	OR
)

func (m Mode) String() string {
	if m == OR {
		return "OR"
	}
	return "AND"
}

type Policy struct {
	Strategies []Strategy
	Mode       Mode
}

func All(s ...Strategy) Policy { return Policy{Strategies: s, Mode: AND} }
func Any(s ...Strategy) Policy { return Policy{Strategies: s, Mode: OR} }

// Public is the policy of a route that declares nothing.
func Public() Policy { return All(None()) }

func (p Policy) normalized() Policy {
	if len(p.Strategies) == 0 {
		return Policy{Strategies: []Strategy{None()}, Mode: p.Mode}
	}
	return p
}

func (p Policy) String() string {
	p = p.normalized()
	names := make([]string, len(p.Strategies))
	for i, s := range p.Strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, " "+p.Mode.String()+" ")
}

var errNoStrategy = errors.New("no strategy evaluated")

// Evaluate runs the strategies one after another in declaration order.
// AND returns the first failure and skips the rest. OR returns on the
// first success, otherwise with the last failure.
func (p Policy) Evaluate(ctx context.Context, r *http.Request) (context.Context, error) {
	p = p.normalized()

	if p.Mode == OR {
		lastErr := errNoStrategy
		for _, s := range p.Strategies {
			next, err := s.Authenticate(ctx, r)
			if err == nil {
				return next, nil
			}
			lastErr = err
		}
		return ctx, lastErr
	}

	for _, s := range p.Strategies {
		next, err := s.Authenticate(ctx, r)
		if err != nil {
			return ctx, err
		}
		ctx = next
	}
	return ctx, nil
}
