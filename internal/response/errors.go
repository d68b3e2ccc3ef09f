package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Session tokens ────────────────────────────────────────────────
	ErrTokenRequired   ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid    ErrCode = "TOKEN_INVALID"
	ErrTokenExpired    ErrCode = "TOKEN_EXPIRED"
	ErrSessionMismatch ErrCode = "SESSION_MISMATCH"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Assessment-specific ───────────────────────────────────────────
	ErrSessionCompleted    ErrCode = "SESSION_COMPLETED"
	ErrSessionNotCompleted ErrCode = "SESSION_NOT_COMPLETED"
	ErrItemAlreadyAnswered ErrCode = "ITEM_ALREADY_ANSWERED"
	ErrAssessmentComplete  ErrCode = "ASSESSMENT_COMPLETE"
	ErrNoItemsAvailable    ErrCode = "NO_ITEMS_AVAILABLE"
	ErrItemVariantMismatch ErrCode = "ITEM_VARIANT_MISMATCH"

	// ─── Rate limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Session tokens ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token de sessão é obrigatório."
	case ErrTokenInvalid:
		return "Token de sessão inválido."
	case ErrTokenExpired:
		return "Token de sessão expirado. Inicie uma nova avaliação."
	case ErrSessionMismatch:
		return "O token não pertence a esta sessão."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Falha na validação dos dados enviados."
	case ErrInvalidID:
		return "Identificador inválido."
	case ErrInvalidPayload:
		return "Corpo da requisição inválido."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Recurso não encontrado."
	case ErrConflict:
		return "Conflito com o estado atual do recurso."

	// ─── Assessment-specific ───────────────────────────────────────────
	case ErrSessionCompleted:
		return "Esta sessão já foi concluída."
	case ErrSessionNotCompleted:
		return "A sessão ainda não foi finalizada."
	case ErrItemAlreadyAnswered:
		return "Esta questão já foi respondida nesta sessão."
	case ErrAssessmentComplete:
		return "A avaliação atingiu o critério de parada. Finalize a sessão."
	case ErrNoItemsAvailable:
		return "Não há questões disponíveis no momento."
	case ErrItemVariantMismatch:
		return "Esta questão não pertence a este tipo de avaliação."

	// ─── Rate limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Muitas requisições. Aguarde um momento e tente novamente."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Ocorreu um erro interno. Tente novamente mais tarde."
	default:
		return "Ocorreu um erro desconhecido."
	}
}
