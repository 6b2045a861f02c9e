package port

type TokenPayload struct {
	CustomerID string
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	CreateToken(customerID string) (string, error)
	VerifyToken(token string) (*TokenPayload, error)
}
