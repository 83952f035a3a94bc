package runctx

import (
	"context"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/uuid"
)

type ctxKey string

const (
	RunIDKey     ctxKey = "runID"
	OperationKey ctxKey = "operation"
	CreatorKey   ctxKey = "creator"
)

func WithRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

func RunIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(RunIDKey).(uuid.UUID)
	return id, ok
}

func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, OperationKey, op)
}

func OperationFromContext(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(OperationKey).(string)
	return op, ok
}

func WithCreator(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, CreatorKey, name)
}

func CreatorFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(CreatorKey).(string)
	return name, ok
}
