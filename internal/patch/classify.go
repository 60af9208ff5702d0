package patch

// Classified holds the per-bucket field names extracted from one request.
// Map-derived buckets are sorted; remove keeps its input order.
type Classified struct {
	Assign    []string
	Remove    []string
	Increment []string
	Append    []string
}

// Fields returns the field-name list for one action bucket.
func (c Classified) Fields(a Action) []string {
	switch a {
	case ActionAssign:
		return c.Assign
	case ActionRemove:
		return c.Remove
	case ActionIncrement:
		return c.Increment
	case ActionAppend:
		return c.Append
	default:
		return nil
	}
}

// All returns every classified field name across all four buckets,
// including repeats. The validator's duplicate check counts occurrences
// over this cumulative list, not per bucket.
func (c Classified) All() []string {
	all := make([]string, 0, len(c.Assign)+len(c.Remove)+len(c.Increment)+len(c.Append))
	for _, a := range Actions {
		all = append(all, c.Fields(a)...)
	}
	return all
}

// Classify partitions a request's target fields into the four action
// buckets. Purely structural: no policy or type checks happen here.
func Classify(r *Request) Classified {
	return Classified{
		Assign:    r.Assign.SortedKeys(),
		Remove:    append([]string(nil), r.Remove...),
		Increment: r.Increment.SortedKeys(),
		Append:    r.Append.SortedKeys(),
	}
}
