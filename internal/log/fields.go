package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldURL        = "url"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldOperation  = "operation"
	FieldExpenseID  = "expense_id"
	FieldTitle      = "title"
	FieldAmount     = "amount"
	FieldMonth      = "month"
	FieldCount      = "count"
	FieldBlobKey    = "blob_key"
	FieldCurrency   = "currency"
	FieldBackend    = "backend"
	FieldEmail      = "email"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentAggregator = "aggregator"
	ComponentRemote     = "remote"
	ComponentStorage    = "storage"
	ComponentBlob       = "blob"
	ComponentAuth       = "auth"
	ComponentRates      = "rates"
	ComponentCache      = "cache"
	ComponentTransport  = "transport"
	ComponentBackend    = "backend"
	ComponentCLI        = "cli"
)

// Operations defines standard operation names
const (
	OpLoad          = "load"
	OpCreate        = "create"
	OpUpdate        = "update"
	OpDelete        = "delete"
	OpUpload        = "upload"
	OpRemoveReceipt = "remove_receipt"
	OpSignIn        = "sign_in"
	OpSignUp        = "sign_up"
	OpSignOut       = "sign_out"
	OpFetchRates    = "fetch_rates"
	OpMigrate       = "migrate"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorKind adds the failure kind, when there is one
func (f LogFields) WithErrorKind(kind error) LogFields {
	if kind != nil {
		f[FieldErrorKind] = kind.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id, title, amount, month string) LogFields {
	if id != "" {
		f[FieldExpenseID] = id
	}
	f[FieldTitle] = title
	f[FieldAmount] = amount
	f[FieldMonth] = month
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
