package query

// Recorder receives operation metrics. Nil disables recording.
type Recorder interface {
	RecordOperation(view, op string)
	RecordTemplateCache(hit bool)
}
