package devtools

import "context"

type subjectValue struct {
	subject string
	tokenID string
}

func withSubject(ctx context.Context, subject, tokenID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subjectValue{subject: subject, tokenID: tokenID})
}

func subjectFrom(ctx context.Context) (string, string) {
	v, _ := ctx.Value(subjectKey{}).(subjectValue)
	return v.subject, v.tokenID
}
