package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldError          = "error"
	FieldMonth          = "month"
	FieldUserID         = "user_id"
	FieldExpenseID      = "expense_id"
	FieldSubscriptionID = "subscription_id"
	FieldCategory       = "category"
	FieldAmountCents    = "amount_cents"
	FieldSource         = "source"
	FieldSheetsRef      = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentScheduler = "scheduler"
	ComponentSheets    = "sheets"
)
