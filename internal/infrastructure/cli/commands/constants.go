package commands

// Error messages
const (
	ErrEngineUnavailable        = "engine unavailable"
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrInvalidHistoryID         = "invalid history id %q"
	ErrTemplateNameRequired     = "template name is required"
	ErrDiagnosticsFailed        = "diagnostics found failures"
)

// Status messages
const (
	MsgConfigurationValid = "Configuration valid"
	MsgNoHistoryRecorded  = "No history recorded yet."
	MsgNoTemplates        = "No templates saved yet."
	MsgCancelled          = "Cancelled."
	MsgCorruptStore       = "warning: %v (showing empty list)\n"
)
