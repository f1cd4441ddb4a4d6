package ports

// Notifier defines the interface for sending run reports to external systems
type Notifier interface {
	// NotifyRunSummary sends a report of one completed extraction run
	NotifyRunSummary(summary RunSummary) error
}

// RunSummary describes the outcome of one extraction run.
type RunSummary struct {
	Folder           string
	WindowStart      string
	WindowEnd        string
	MessagesScanned  int // in-window messages inspected
	MessagesWithData int // messages that produced a record
	RowsAppended     int
	CreatedMaster    bool // true when the run created a fresh master sheet
}
