package reconcile

import "github.com/hilthontt/parley/internal/querycache"

// Effects are the side effects a reconciler asks its owner to perform.
type Effects struct {
	Refetch  []querycache.Tag
	Navigate string
	Notice   string
}

func (e Effects) Empty() bool {
	return len(e.Refetch) == 0 && e.Navigate == "" && e.Notice == ""
}

func (e Effects) Merge(o Effects) Effects {
	out := Effects{
		Refetch:  append(append([]querycache.Tag(nil), e.Refetch...), o.Refetch...),
		Navigate: e.Navigate,
		Notice:   e.Notice,
	}
	if o.Navigate != "" {
		out.Navigate = o.Navigate
	}
	if o.Notice != "" {
		out.Notice = o.Notice
	}
	return out
}
