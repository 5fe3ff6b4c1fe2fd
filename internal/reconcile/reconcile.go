// Package reconcile joins items with their recoveries to derive what a viewer sees.
package reconcile

import (
	"github.com/mdouchement/lostfound/pkg/liblf"
)

// Effective statuses.
const (
	StatusActive              = "active"
	StatusPendingConfirmation = "pending-confirmation"
	StatusRecovered           = "recovered"
)

// Action labels.
const (
	LabelAlreadyRecovered = "Already Recovered"
	LabelYourItem         = "Your Item"
	LabelThisIsMine       = "This is Mine!"
	LabelIFoundIt         = "I Found It!"
)

// Recovery types relative to a viewer.
const (
	TypeFound     = "found"
	TypeRecovered = "recovered"
	TypeUnknown   = "unknown"
)

type (
	// An Action is the state of the item detail action control.
	Action struct {
		Enabled bool
		Label   string
		// RequiresSignIn is set when the action would be available once signed in.
		RequiresSignIn bool
	}

	// A State is the display-ready status of an item for a viewer.
	State struct {
		Status   string
		Action   Action
		IsOwner  bool
		Recovery *liblf.Recovery
		// CanConfirm is set when the viewer is the original owner of a pending recovery.
		CanConfirm bool
	}

	// An Index holds the recoveries keyed by item id.
	// The first recovery seen for an item wins.
	Index map[string]liblf.Recovery
)

// NewIndex builds an Index from the given recoveries.
func NewIndex(recoveries []liblf.Recovery) Index {
	idx := make(Index, len(recoveries))
	for _, r := range recoveries {
		if r.ItemID == "" {
			continue
		}
		if _, ok := idx[r.ItemID]; ok {
			continue
		}
		idx[r.ItemID] = r
	}
	return idx
}

// Lookup returns the recovery of the given item.
func (idx Index) Lookup(itemID string) (liblf.Recovery, bool) {
	r, ok := idx[itemID]
	return r, ok
}

// Reconcile derives the state of the item for the viewer.
// viewerEmail is empty for anonymous viewers.
func Reconcile(item liblf.Item, recoveries []liblf.Recovery, viewerEmail string) State {
	for _, r := range recoveries {
		if r.ItemID == item.ID {
			return derive(item, &r, viewerEmail)
		}
	}
	return derive(item, nil, viewerEmail)
}

// Reconcile derives the state of the item for the viewer using the indexed recoveries.
func (idx Index) Reconcile(item liblf.Item, viewerEmail string) State {
	if r, ok := idx.Lookup(item.ID); ok {
		return derive(item, &r, viewerEmail)
	}
	return derive(item, nil, viewerEmail)
}

func derive(item liblf.Item, recovery *liblf.Recovery, viewerEmail string) State {
	s := State{
		Status:   EffectiveStatus(item, recovery),
		IsOwner:  item.OwnedBy(viewerEmail),
		Recovery: recovery,
	}

	switch {
	case s.Status == StatusRecovered:
		s.Action = Action{Label: LabelAlreadyRecovered}
	case s.IsOwner:
		s.Action = Action{Label: LabelYourItem}
	default:
		s.Action = Action{
			Enabled: viewerEmail != "",
			Label:   ClaimLabel(item),
		}
		s.Action.RequiresSignIn = !s.Action.Enabled
	}

	s.CanConfirm = recovery != nil && !recovery.FullyRecovered() &&
		viewerEmail != "" && recovery.OriginalOwner.Email == viewerEmail
	return s
}

// EffectiveStatus returns the status of the item given its recovery, if any.
// The backend's item status wins over the recovery record.
func EffectiveStatus(item liblf.Item, recovery *liblf.Recovery) string {
	switch {
	case item.Recovered():
		return StatusRecovered
	case recovery == nil:
		return StatusActive
	case recovery.FullyRecovered():
		return StatusRecovered
	default:
		return StatusPendingConfirmation
	}
}

// ClaimLabel returns the label of the action used to claim the item.
func ClaimLabel(item liblf.Item) string {
	if item.PostType == liblf.PostTypeFound {
		return LabelThisIsMine
	}
	return LabelIFoundIt
}

// TypeOf returns the recovery type relative to the viewer.
func TypeOf(recovery liblf.Recovery, viewerEmail string) string {
	switch {
	case viewerEmail == "":
		return TypeUnknown
	case viewerEmail == recovery.RecoveredBy.Email:
		return TypeFound
	case viewerEmail == recovery.OriginalOwner.Email:
		return TypeRecovered
	default:
		return TypeUnknown
	}
}

// TypeLabel returns the display label of a recovery type.
func TypeLabel(typ string) string {
	switch typ {
	case TypeFound:
		return "You Found This"
	case TypeRecovered:
		return "Item Returned"
	default:
		return "Recovery"
	}
}

// Orphans returns the recoveries referencing none of the given items.
func Orphans(items []liblf.Item, recoveries []liblf.Recovery) []liblf.Recovery {
	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	orphans := []liblf.Recovery{}
	for _, r := range recoveries {
		if !known[r.ItemID] {
			orphans = append(orphans, r)
		}
	}
	return orphans
}
