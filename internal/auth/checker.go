package auth

import "context"

var _ Checker = (*LoginChecker)(nil)

type Checker interface {
	GetUserID(ctx context.Context, token string) (int, error)
	IsLogged(ctx context.Context, token string) (bool, error)
}
