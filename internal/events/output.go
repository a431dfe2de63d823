package events

// OutputOpened is emitted when a task opens a generated file for writing.
type OutputOpened struct {
	Task string
	Path string
}

// SchemaLoaded is emitted when a task finished building its schema context.
type SchemaLoaded struct {
	Task    string
	Sources int
	Types   int
}
