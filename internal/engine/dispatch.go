package engine

import (
	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/state"
)

// foldFunc applies one record. Each entry in a domain table picks out the
// state slices its handler may touch and passes only those on.
type foldFunc func(e *Engine, s *state.Session, rec journal.Record, out *notices)

// domain is one link of the handler chain: a name and the kinds it claims.
type domain struct {
	name  string
	kinds map[journal.Kind]foldFunc
}

type route struct {
	domain string
	fold   foldFunc
}

// domains is the handler chain in priority order. When two domains claim
// the same kind the earlier one wins, matching a chain where the first
// handler to accept a record stops the walk.
var domains = []domain{
	inventoryDomain,
	systemDomain,
	explorationDomain,
	exobioDomain,
	powerplayDomain,
	combatDomain,
	miscDomain,
}

func buildRoutes(chain []domain) map[journal.Kind]route {
	routes := make(map[journal.Kind]route)
	for _, d := range chain {
		for k, fn := range d.kinds {
			if _, taken := routes[k]; taken {
				continue
			}
			routes[k] = route{domain: d.name, fold: fn}
		}
	}
	return routes
}
