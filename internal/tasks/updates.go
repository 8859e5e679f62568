package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScanClients Phase = iota
	ScanContacts
	RepairPairs
)

func (p Phase) String() string {
	switch p {
	case ScanClients:
		return "scan_clients"
	case ScanContacts:
		return "scan_contacts"
	case RepairPairs:
		return "repair_pairs"
	default:
		return ""
	}
}

// Op names the link operation being coordinated.
type Op int

const (
	OpLink Op = iota
	OpUnlink
)

func (o Op) String() string {
	switch o {
	case OpLink:
		return "link"
	case OpUnlink:
		return "unlink"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func scanClientsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanClients,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Scanned %d clients", total),
	}
}

func scanContactsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanContacts,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Scanned %d contacts", total),
	}
}

func repairPairUpdate(step, total int, a Asymmetry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RepairPairs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Repairing %s", a),
		Data:    a,
	}
}
