package ocpq

import (
	"github.com/aarkue/OCPQ/box"
	"github.com/aarkue/OCPQ/ocel"
)

// FilterLog evaluates tree against log and returns a new OCEL containing
// only the events and objects selected by satisfied bindings, per the
// per-variable filter labels on each BindingBox (§6, §9): a variable marked
// Included keeps its bound id; one marked Excluded drops it. Whether any
// variable anywhere in the tree is marked Included is a single tree-wide
// decision, independent of variable kind: if none is, every event and
// object in log is kept by default, minus anything explicitly Excluded.
// A relationship survives only when both endpoints survive and it is not
// itself dropped by an O2E/O2O filter's own Excluded/Included label.
func FilterLog(tree *box.Tree, log *ocel.Log, opts Options) (*ocel.OCEL, error) {
	result, err := Evaluate(tree, log, opts)
	if err != nil {
		return nil, err
	}

	anyIncluded := treeHasIncludedVar(tree)
	anyE2ORelIncluded := treeHasIncludedFilterLabel(tree, func(f box.Filter) (box.FilterLabel, bool) {
		o2e, ok := f.(box.O2E)
		return o2e.Label, ok
	})
	anyO2ORelIncluded := treeHasIncludedFilterLabel(tree, func(f box.Filter) (box.FilterLabel, bool) {
		o2o, ok := f.(box.O2O)
		return o2o.Label, ok
	})

	includedEvents := map[ocel.EventIndex]struct{}{}
	excludedEvents := map[ocel.EventIndex]struct{}{}
	includedObjects := map[ocel.ObjectIndex]struct{}{}
	excludedObjects := map[ocel.ObjectIndex]struct{}{}

	type e2oKey struct {
		event  ocel.EventIndex
		object ocel.ObjectIndex
	}
	type o2oKey struct {
		from, to ocel.ObjectIndex
	}
	includedE2ORels := map[e2oKey]struct{}{}
	excludedE2ORels := map[e2oKey]struct{}{}
	includedO2ORels := map[o2oKey]struct{}{}
	excludedO2ORels := map[o2oKey]struct{}{}

	for _, fr := range result.Flat {
		if fr.Violation != nil {
			continue
		}
		bx, _ := tree.Resolve(fr.NodeIndex)

		for _, v := range fr.Binding.EventVars() {
			idx, _ := fr.Binding.GetEvent(v)
			switch bx.EventVarLabels[v] {
			case box.Included:
				includedEvents[idx] = struct{}{}
			case box.Excluded:
				excludedEvents[idx] = struct{}{}
			}
		}
		for _, v := range fr.Binding.ObjectVars() {
			idx, _ := fr.Binding.GetObject(v)
			switch bx.ObjectVarLabels[v] {
			case box.Included:
				includedObjects[idx] = struct{}{}
			case box.Excluded:
				excludedObjects[idx] = struct{}{}
			}
		}

		for _, f := range bx.Filters {
			switch ff := f.(type) {
			case box.O2E:
				if ff.Label == box.Ignored {
					continue
				}
				ei, ok1 := fr.Binding.GetEvent(ff.EventVar)
				oi, ok2 := fr.Binding.GetObject(ff.ObjectVar)
				if !ok1 || !ok2 {
					continue
				}
				ok, err := ff.Check(fr.Binding, log, nil)
				if err != nil || !ok {
					continue
				}
				key := e2oKey{ei, oi}
				if ff.Label == box.Included {
					includedE2ORels[key] = struct{}{}
				} else {
					excludedE2ORels[key] = struct{}{}
				}
			case box.O2O:
				if ff.Label == box.Ignored {
					continue
				}
				fi, ok1 := fr.Binding.GetObject(ff.From)
				ti, ok2 := fr.Binding.GetObject(ff.To)
				if !ok1 || !ok2 {
					continue
				}
				ok, err := ff.Check(fr.Binding, log, nil)
				if err != nil || !ok {
					continue
				}
				key := o2oKey{fi, ti}
				if ff.Label == box.Included {
					includedO2ORels[key] = struct{}{}
				} else {
					excludedO2ORels[key] = struct{}{}
				}
			}
		}
	}

	keepEvent := func(idx ocel.EventIndex) bool {
		if _, excluded := excludedEvents[idx]; excluded {
			return false
		}
		if anyIncluded {
			_, ok := includedEvents[idx]
			return ok
		}
		return true
	}
	keepObject := func(idx ocel.ObjectIndex) bool {
		if _, excluded := excludedObjects[idx]; excluded {
			return false
		}
		if anyIncluded {
			_, ok := includedObjects[idx]
			return ok
		}
		return true
	}
	keepE2ORel := func(e ocel.EventIndex, o ocel.ObjectIndex) bool {
		key := e2oKey{e, o}
		if _, excluded := excludedE2ORels[key]; excluded {
			return false
		}
		if anyE2ORelIncluded {
			_, ok := includedE2ORels[key]
			return ok
		}
		return true
	}
	keepO2ORel := func(from, to ocel.ObjectIndex) bool {
		key := o2oKey{from, to}
		if _, excluded := excludedO2ORels[key]; excluded {
			return false
		}
		if anyO2ORelIncluded {
			_, ok := includedO2ORels[key]
			return ok
		}
		return true
	}

	return buildFilteredOCEL(log, keepEvent, keepObject, keepE2ORel, keepO2ORel), nil
}

// treeHasIncludedVar reports whether any event or object variable anywhere
// in tree is marked Included, the single flag gating whether FilterLog
// defaults to keeping everything or only explicitly Included ids.
func treeHasIncludedVar(tree *box.Tree) bool {
	for _, n := range tree.Nodes {
		if n.Kind != box.NodeBox || n.Box == nil {
			continue
		}
		for _, lbl := range n.Box.EventVarLabels {
			if lbl == box.Included {
				return true
			}
		}
		for _, lbl := range n.Box.ObjectVarLabels {
			if lbl == box.Included {
				return true
			}
		}
	}
	return false
}

// treeHasIncludedFilterLabel reports whether pick, applied to any filter of
// the matching kind anywhere in tree, returns Included.
func treeHasIncludedFilterLabel(tree *box.Tree, pick func(box.Filter) (box.FilterLabel, bool)) bool {
	for _, n := range tree.Nodes {
		if n.Kind != box.NodeBox || n.Box == nil {
			continue
		}
		for _, f := range n.Box.Filters {
			if lbl, ok := pick(f); ok && lbl == box.Included {
				return true
			}
		}
	}
	return false
}

func buildFilteredOCEL(
	log *ocel.Log,
	keepEvent func(ocel.EventIndex) bool,
	keepObject func(ocel.ObjectIndex) bool,
	keepE2ORel func(ocel.EventIndex, ocel.ObjectIndex) bool,
	keepO2ORel func(from, to ocel.ObjectIndex) bool,
) *ocel.OCEL {
	out := &ocel.OCEL{}

	eventTypes := map[string]struct{}{}
	objectTypes := map[string]struct{}{}

	for i := 0; i < log.NumEvents(); i++ {
		idx := ocel.EventIndex(i)
		if !keepEvent(idx) {
			continue
		}
		e := log.Event(idx)
		eventTypes[e.Type] = struct{}{}

		var rels []ocel.RawRelationship
		for _, ref := range log.E2O(idx) {
			if !keepObject(ref.Object) || !keepE2ORel(idx, ref.Object) {
				continue
			}
			rels = append(rels, ocel.RawRelationship{Qualifier: ref.Qualifier, TargetID: log.Object(ref.Object).ID})
		}
		out.Events = append(out.Events, ocel.RawEvent{
			ID: e.ID, Type: e.Type, Time: e.Time, Attributes: e.Attributes, Relationships: rels,
		})
	}

	for i := 0; i < log.NumObjects(); i++ {
		idx := ocel.ObjectIndex(i)
		if !keepObject(idx) {
			continue
		}
		o := log.Object(idx)
		objectTypes[o.Type] = struct{}{}

		var rels []ocel.RawRelationship
		for _, ref := range log.O2O(idx) {
			if !keepObject(ref.Object) || !keepO2ORel(idx, ref.Object) {
				continue
			}
			rels = append(rels, ocel.RawRelationship{Qualifier: ref.Qualifier, TargetID: log.Object(ref.Object).ID})
		}
		out.Objects = append(out.Objects, ocel.RawObject{
			ID: o.ID, Type: o.Type, Attributes: o.Attributes, Relationships: rels,
		})
	}

	for t := range eventTypes {
		out.EventTypes = append(out.EventTypes, t)
	}
	for t := range objectTypes {
		out.ObjectTypes = append(out.ObjectTypes, t)
	}
	return out
}
