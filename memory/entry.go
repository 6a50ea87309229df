package memory

// EntryFlag is a bit in a page directory or page table entry.
type EntryFlag uint32

const (
	// FlagPresent is set when the entry maps something.
	FlagPresent EntryFlag = 1 << iota

	// FlagRW allows writes through the entry.
	FlagRW

	// FlagUserAccessible allows privilege-3 access. Both the directory entry
	// and the table entry must carry it.
	FlagUserAccessible

	// FlagWriteThroughCaching selects write-through caching.
	FlagWriteThroughCaching

	// FlagDoNotCache disables caching for the page.
	FlagDoNotCache

	// FlagAccessed is set by the CPU on access.
	FlagAccessed

	// FlagDirty is set by the CPU on write.
	FlagDirty

	// FlagHugePage marks a directory entry that maps 4MB directly.
	FlagHugePage

	// FlagGlobal keeps the translation across CR3 reloads.
	FlagGlobal
)

const frameMask = 0xFFFFF000

// Entry is a 32-bit page directory or page table entry.
type Entry uint32

// HasFlags returns true if all of flags are set.
func (e Entry) HasFlags(flags EntryFlag) bool {
	return uint32(e)&uint32(flags) == uint32(flags)
}

// HasAnyFlag returns true if at least one of flags is set.
func (e Entry) HasAnyFlag(flags EntryFlag) bool {
	return uint32(e)&uint32(flags) != 0
}

func (e *Entry) SetFlags(flags EntryFlag) {
	*e = Entry(uint32(*e) | uint32(flags))
}

func (e *Entry) ClearFlags(flags EntryFlag) {
	*e = Entry(uint32(*e) &^ uint32(flags))
}

// Frame is the physical address the entry points at.
func (e Entry) Frame() uint32 {
	return uint32(e) & frameMask
}

// SetFrame points the entry at a physical address, keeping its flags.
func (e *Entry) SetFrame(addr uint32) {
	*e = Entry(uint32(*e)&^frameMask | addr&frameMask)
}

// PageTable is 1024 entries, either a directory or a table.
type PageTable [1024]Entry
