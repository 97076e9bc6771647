package merge

import "github.com/siegeai/siegeschema/schema"

// union flattens a and b into one normalized member list, a's members first. A single
// surviving member is returned bare.
func union(a, b schema.Schema) schema.Schema {
	ms := make([]schema.Schema, 0, 4)
	ms = insertFlattened(ms, a)
	ms = insertFlattened(ms, b)
	if len(ms) == 1 {
		return ms[0]
	}
	return &schema.UnionSchema{Members: ms}
}

func insertFlattened(ms []schema.Schema, s schema.Schema) []schema.Schema {
	if s.Kind() != schema.KindUnion {
		return InsertUnionMember(ms, s)
	}
	for _, m := range s.AsUnion().Members {
		ms = InsertUnionMember(ms, m)
	}
	return ms
}

// InsertUnionMember adds candidate to a union member list and returns the updated list,
// reusing the backing array of members. The list stays free of duplicates, and never holds
// a literal next to a primitive that covers it: a covered literal candidate is dropped, and
// a primitive candidate evicts the literals it covers.
func InsertUnionMember(members []schema.Schema, candidate schema.Schema) []schema.Schema {
	if candidate.Kind() == schema.KindLiteral {
		l := candidate.AsLiteral()
		for _, m := range members {
			if m.Kind() == schema.KindPrimitive && schema.Covers(m.AsPrimitive(), l) {
				return members
			}
		}

		res := members[:0]
		for _, m := range members {
			if !schema.Equal(m, candidate) {
				res = append(res, m)
			}
		}
		return append(res, candidate)
	}

	res := members[:0]
	for _, m := range members {
		if covered(candidate, m) {
			continue
		}
		res = append(res, m)
	}

	for _, m := range res {
		if schema.Equal(m, candidate) {
			return res
		}
	}
	return append(res, candidate)
}

func covered(candidate, member schema.Schema) bool {
	if candidate.Kind() != schema.KindPrimitive || member.Kind() != schema.KindLiteral {
		return false
	}
	return schema.Covers(candidate.AsPrimitive(), member.AsLiteral())
}
