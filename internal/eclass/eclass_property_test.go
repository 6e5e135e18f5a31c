//go:build property

package eclass_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/roach88/tenure/internal/eclass"
)

var tags = []eclass.ActionType{
	eclass.Wait, eclass.Log, eclass.Read, eclass.StateGet, eclass.StateSet,
	eclass.Write, eclass.Sequence, eclass.InvokeTool, eclass.Delegate,
	eclass.Network, eclass.ActionType("UNMAPPED"),
}

func genManifest() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(tags)-1)).Map(func(idx []int) []eclass.ActionType {
		out := make([]eclass.ActionType, len(idx))
		for i, j := range idx {
			out[i] = tags[j]
		}
		return out
	})
}

// Derive(m) is the maximum group over m, and adding a tag never lowers it.
func TestDeriveIsMonotoneMaximum(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("derived class dominates every tag", prop.ForAll(
		func(m []eclass.ActionType) bool {
			c := eclass.Derive(m)
			for _, at := range m {
				if eclass.GroupOf(at) > c {
					return false
				}
			}
			return true
		},
		genManifest(),
	))

	properties.Property("extending a manifest never lowers its class", prop.ForAll(
		func(m []eclass.ActionType, extra int) bool {
			extended := append(append([]eclass.ActionType{}, m...), tags[extra])
			return eclass.Derive(extended) >= eclass.Derive(m)
		},
		genManifest(),
		gen.IntRange(0, len(tags)-1),
	))

	properties.TestingRun(t)
}
