package common

import "context"

type ctxKey string

const staffIDKey ctxKey = "auth/staff-id"

// WithStaffID stores the authenticated staff member identifier on the provided context.
func WithStaffID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, staffIDKey, id)
}

// StaffID extracts the authenticated staff member identifier from the context if present.
func StaffID(ctx context.Context) (string, bool) {
	v := ctx.Value(staffIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
