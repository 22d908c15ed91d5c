package log

// Structured field names.
const (
	FieldError    = "error"
	FieldFile     = "file"
	FieldStage    = "stage"
	FieldInput    = "input"
	FieldOutput   = "output"
	FieldBackend  = "backend"
	FieldWorkers  = "workers"
	FieldReason   = "reason"
	FieldMethods  = "methods"
	FieldLocals   = "locals"
	FieldFiles    = "files"
	FieldPath     = "path"
	FieldFailures = "failures"
)
