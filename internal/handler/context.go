package handler

type ContextKey string

var (
	ActorCtxKey  ContextKey = "actor"
	ClaimsCtxKey ContextKey = "claims"
	ShiftIDCtx   ContextKey = "shiftID"
)
