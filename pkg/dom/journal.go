package dom

import "fmt"

// OpKind identifies a mutation applied to a Document.
type OpKind int

const (
	OpCreate OpKind = iota
	OpSetProperty
	OpRemoveProperty
	OpAddListener
	OpRemoveListener
	OpAppend
	OpInsert
	OpRemove
	OpSetText
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpSetProperty:
		return "set"
	case OpRemoveProperty:
		return "unset"
	case OpAddListener:
		return "listen"
	case OpRemoveListener:
		return "unlisten"
	case OpAppend:
		return "append"
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpSetText:
		return "text"
	default:
		return "unknown"
	}
}

// Op is one journal entry.
type Op struct {
	Kind OpKind
	// Node is the ID of the node mutated (the child for tree operations).
	Node int
	// Parent is the ID of the parent for tree operations.
	Parent int
	// Name is the tag, property or event name.
	Name  string
	Value any
}

func (o Op) String() string {
	switch o.Kind {
	case OpCreate:
		return fmt.Sprintf("create %s #%d", o.Name, o.Node)
	case OpSetProperty:
		return fmt.Sprintf("set #%d %s=%v", o.Node, o.Name, o.Value)
	case OpAppend, OpInsert, OpRemove:
		return fmt.Sprintf("%s #%d -> #%d", o.Kind, o.Node, o.Parent)
	case OpSetText:
		return fmt.Sprintf("text #%d %q", o.Node, o.Value)
	default:
		return fmt.Sprintf("%s #%d %s", o.Kind, o.Node, o.Name)
	}
}

// Journal returns the mutations applied since the last ResetJournal.
func (d *Document) Journal() []Op { return d.journal }

// ResetJournal clears the mutation journal.
func (d *Document) ResetJournal() { d.journal = nil }

// Count returns how many journal entries have one of kinds.
func (d *Document) Count(kinds ...OpKind) int {
	n := 0
	for _, op := range d.journal {
		for _, k := range kinds {
			if op.Kind == k {
				n++
				break
			}
		}
	}
	return n
}
