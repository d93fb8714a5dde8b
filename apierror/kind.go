package apierror

// Kind is the closed taxonomy of normalized API failures.
type Kind uint8

const (
	// KindUnknown covers everything the classifier cannot place, including unparseable bodies.
	KindUnknown Kind = iota
	// KindValidation is a rejected request payload (400, 422).
	KindValidation
	// KindUnauthorized is a missing or expired session (401).
	KindUnauthorized
	// KindForbidden is an authenticated caller without access (403).
	KindForbidden
	// KindConflictAlreadyLoggedIn is a 409 carrying the USER_ALREADY_LOGGED_IN provider code.
	KindConflictAlreadyLoggedIn
	// KindRateLimited is a 429 or an explicit lockout signal.
	KindRateLimited
	// KindServer is any 5xx response.
	KindServer
	// KindNetwork is a transport failure with no HTTP response.
	KindNetwork
)

var kindNames = [...]string{
	KindUnknown:                 "UNKNOWN",
	KindValidation:              "VALIDATION",
	KindUnauthorized:            "UNAUTHORIZED",
	KindForbidden:               "FORBIDDEN",
	KindConflictAlreadyLoggedIn: "CONFLICT_ALREADY_LOGGED_IN",
	KindRateLimited:             "RATE_LIMITED",
	KindServer:                  "SERVER",
	KindNetwork:                 "NETWORK",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Disposition tells the caller how a classified failure reaches the user.
type Disposition uint8

const (
	// DispositionNotify shows a notification carrying the classifier message.
	DispositionNotify Disposition = iota
	// DispositionRedirect sends the user to the sign-in view instead of notifying.
	DispositionRedirect
)

func (d Disposition) String() string {
	if d == DispositionRedirect {
		return "redirect"
	}
	return "notify"
}

// Disposition returns how failures of this kind are surfaced.
func (k Kind) Disposition() Disposition {
	switch k {
	case KindUnauthorized, KindForbidden:
		return DispositionRedirect
	default:
		return DispositionNotify
	}
}

// Generic user-facing messages per kind. None of them echo backend internals.
const (
	MessageUnknown      = "An unexpected error occurred. Please try again."
	MessageValidation   = "The request was invalid. Please check your input."
	MessageUnauthorized = "Your session has expired. Please sign in again."
	MessageForbidden    = "You do not have permission to access this resource."
	MessageConflict     = "Another user is already logged in on this device."
	MessageRateLimited  = "Too many attempts. Please try again later."
	MessageServer       = "The server encountered an error. Please try again later."
	MessageNetwork      = "Unable to reach the server. Please check your connection."
)

func defaultMessage(k Kind) string {
	switch k {
	case KindValidation:
		return MessageValidation
	case KindUnauthorized:
		return MessageUnauthorized
	case KindForbidden:
		return MessageForbidden
	case KindConflictAlreadyLoggedIn:
		return MessageConflict
	case KindRateLimited:
		return MessageRateLimited
	case KindServer:
		return MessageServer
	case KindNetwork:
		return MessageNetwork
	default:
		return MessageUnknown
	}
}
