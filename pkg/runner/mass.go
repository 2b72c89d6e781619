package runner

import (
	"cmp"
	"slices"

	"github.com/aretw0/entropia/pkg/domain"
)

type mass struct {
	hash domain.StateHash
	p    float64
}

func sortMasses(ms []mass) {
	slices.SortFunc(ms, func(a, b mass) int {
		if c := cmp.Compare(b.p, a.p); c != 0 {
			return c
		}
		return cmp.Compare(a.hash, b.hash)
	})
}
