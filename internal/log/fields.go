package log

import "subtrack/internal/core"

// Field names shared by every component.
const (
	FieldComponent       = "component"
	FieldRequestID       = "request_id"
	FieldClientIP        = "client_ip"
	FieldMethod          = "method"
	FieldPath            = "path"
	FieldQuery           = "query"
	FieldStatusCode      = "status_code"
	FieldDuration        = "duration_ms"
	FieldUserAgent       = "user_agent"
	FieldSuccess         = "success"
	FieldError           = "error"
	FieldOperation       = "operation"
	FieldUserID          = "user_id"
	FieldSubscriptionID  = "subscription_id"
	FieldName            = "name"
	FieldCostCents       = "cost_cents"
	FieldCurrency        = "currency"
	FieldCycle           = "cycle"
	FieldCategory        = "category"
	FieldNextBillingDate = "next_billing_date"
)

const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentSubscription = "subscription"
	ComponentRealtime     = "realtime"
	ComponentAuth         = "auth"
	ComponentAlerts       = "alerts"
	ComponentNotify       = "notify"
	ComponentScheduler    = "scheduler"
	ComponentWorker       = "worker"
	ComponentSheets       = "sheets"
	ComponentCache        = "cache"
	ComponentSecurity     = "security"
	ComponentTrace        = "trace"
	ComponentBackend      = "backend"
)

const (
	OpCreate = "create"
	OpDelete = "delete"
	OpMirror = "mirror"
	OpNotify = "notify"
	OpLogin  = "login"
)

// LogFields collects attributes before handing them to slog.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError records err's message; a nil err adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithUser(userID string) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithSubscription adds the fields that identify a stored subscription.
func (f LogFields) WithSubscription(s core.Subscription) LogFields {
	if s.ID != "" {
		f[FieldSubscriptionID] = s.ID
	}
	f[FieldName] = s.Name
	f[FieldCostCents] = s.Cost.Cents
	f[FieldCurrency] = string(s.Currency)
	f[FieldCycle] = string(s.Cycle)
	f[FieldCategory] = string(s.Category)
	f[FieldNextBillingDate] = s.NextBillingDate.String()
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens f into slog's alternating key/value form.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
