package domain

import "context"

type ctxKey int

const (
	correlationKey ctxKey = iota
	languageKey
)

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

func CorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(correlationKey).(string)
	return v
}

func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey, lang)
}

// Language defaults to "en" when the context carries none.
func Language(ctx context.Context) string {
	if v, ok := ctx.Value(languageKey).(string); ok && v != "" {
		return v
	}
	return "en"
}
