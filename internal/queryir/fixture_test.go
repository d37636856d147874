package queryir

import (
	"fmt"

	"github.com/roach88/stateview/internal/ir"
)

// fixtureTargets returns three documents with order i, arrayWithScalar
// [i..2i] and i+1 copies of {item: i+1, flag: true}.
func fixtureTargets() []Target {
	names := []ir.IRObject{
		{"name": ir.IRString("Cutie"), "lastName": ir.IRString("Cuddly")},
		{"name": ir.IRString("Dolly"), "lastName": ir.IRString("Dash")},
		{"name": ir.IRString("Fluffy"), "lastName": ir.IRString("Sweety")},
	}

	out := make([]Target, 3)
	for i := range out {
		data := names[i].Clone()
		data["order"] = ir.IRInt(i)

		scalars := ir.IRArray{}
		for j := 0; j <= i; j++ {
			scalars = append(scalars, ir.IRInt(i+j))
		}
		data["arrayWithScalar"] = scalars

		objects := ir.IRArray{}
		for j := 0; j <= i; j++ {
			objects = append(objects, ir.IRObject{"item": ir.IRInt(i + 1), "flag": ir.IRBool(true)})
		}
		data["arrayWithObjects"] = objects

		out[i] = Target{
			Type:   "niceDocument",
			ID:     fmt.Sprintf("doc-%d", i+1),
			UserID: fmt.Sprintf("user-%d", i+1),
			Data:   data,
		}
	}
	return out
}

func ids(targets []Target) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.ID
	}
	return out
}
