package tokens

import "github.com/invisibility-inc/echo-backend/internal/config"

// Verifier adapts Verify to the auth middleware's TokenVerifier interface.
type Verifier struct {
	cfg *config.Config
}

func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{cfg: cfg}
}

func (v *Verifier) VerifyToken(token string) (string, error) {
	claims, err := Verify(v.cfg, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
