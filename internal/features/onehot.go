package features

import (
	"slices"
	"sort"
	"strconv"
)

// OneHot replaces each listed categorical column with one 0/1 column per value
// present, named "<column>_<value>". Uncoded columns keep their order and come
// first, then the dummies of each categorical column in the order given, with
// values sorted. Missing cells get no dummy.
func OneHot(f *Frame, categorical []string) *Frame {
	type dummy struct {
		src   int
		value string
	}

	out := &Frame{}
	var plain []int
	for i, c := range f.Columns {
		if slices.Contains(categorical, c) {
			continue
		}
		plain = append(plain, i)
		out.Columns = append(out.Columns, c)
	}

	var dummies []dummy
	for _, c := range categorical {
		src := f.Index(c)
		if src < 0 {
			continue
		}
		seen := map[string]struct{}{}
		for _, row := range f.Rows {
			if row[src].Kind == Missing {
				continue
			}
			seen[cellString(row[src])] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		for _, v := range values {
			dummies = append(dummies, dummy{src: src, value: v})
			out.Columns = append(out.Columns, c+"_"+v)
		}
	}

	out.Rows = make([][]Cell, len(f.Rows))
	for r, row := range f.Rows {
		nr := make([]Cell, 0, len(out.Columns))
		for _, i := range plain {
			nr = append(nr, row[i])
		}
		for _, d := range dummies {
			v := 0.0
			if row[d.src].Kind != Missing && cellString(row[d.src]) == d.value {
				v = 1
			}
			nr = append(nr, Num(v))
		}
		out.Rows[r] = nr
	}
	return out
}

func cellString(c Cell) string {
	if c.Kind == Text {
		return c.Str
	}
	return strconv.FormatFloat(c.Num, 'g', -1, 64)
}
