package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010
	Busy             Code = 100011

	// Bounty codes
	AlreadyClaimed         Code = 200001
	ClaimLimitExceeded     Code = 200002
	NotClaimedByCaller     Code = 200003
	InvalidStateTransition Code = 200004
	SubmissionMissing      Code = 200005
	AlreadyCompleted       Code = 200006

	// Event codes
	EventFull         Code = 300001
	AlreadyRegistered Code = 300002
	NotRegistered     Code = 300003

	// Ledger codes
	InsufficientBalance Code = 400001
	MethodNotFound      Code = 400002

	// Consistency codes
	InvariantViolation Code = 900001
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindTransient
	KindInvariant
)

var kinds = map[Code]Kind{
	BadRequest:       KindValidation,
	PermissionDenied: KindValidation,
	NotFound:         KindValidation,
	Unauthenticated:  KindValidation,
	Unavailable:      KindValidation,
	NotImplemented:   KindValidation,

	AlreadyExists:   KindConflict,
	TooManyRequests: KindTransient,
	Busy:            KindTransient,

	AlreadyClaimed:         KindConflict,
	ClaimLimitExceeded:     KindConflict,
	NotClaimedByCaller:     KindValidation,
	InvalidStateTransition: KindConflict,
	SubmissionMissing:      KindValidation,
	AlreadyCompleted:       KindConflict,

	EventFull:         KindConflict,
	AlreadyRegistered: KindConflict,
	NotRegistered:     KindValidation,

	InsufficientBalance: KindValidation,
	MethodNotFound:      KindValidation,

	InvariantViolation: KindInvariant,
}

func (c Code) Kind() Kind {
	if k, ok := kinds[c]; ok {
		return k
	}

	return KindUnknown
}
