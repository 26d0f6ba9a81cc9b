package user

import (
	"context"
	"testing"
)

// uniquenessSpy records the context handed to the email uniqueness check.
type uniquenessSpy struct {
	Repository
	gotCtx context.Context
}

func (r *uniquenessSpy) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error {
	r.gotCtx = ctx
	return nil
}

func TestValidatePropagatesContext(t *testing.T) {
	spy := &uniquenessSpy{}
	svc := &Service{repo: spy}

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "request")

	nu := NewUser{Email: "staff@test.cd", Password: "LeM0tDePass!", PasswordConfirm: "LeM0tDePass!"}
	if err := nu.Validate(ctx, svc); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if spy.gotCtx != ctx {
		t.Error("CheckEmailUniqueness() did not receive the caller's context")
	}

	spy.gotCtx = nil
	uu := UpdateUser{Email: "staff2@test.cd"}
	if err := uu.Validate(ctx, User{Email: "staff@test.cd"}, svc); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if spy.gotCtx != ctx {
		t.Error("CheckEmailUniqueness() did not receive the caller's context")
	}
}
