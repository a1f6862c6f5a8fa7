package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type RequestData struct {
	AgentID uuid.UUID
	Email   string
}

type ctxKey struct{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, ctxKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, _ := ctx.Value(ctxKey{}).(*RequestData)
	return rd
}
