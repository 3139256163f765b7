package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Roles accepted at login.
const (
	RoleTutor   = "tutor"
	RoleStudent = "student"
)

var (
	ErrInvalidRole        = errors.New("role must be tutor or student")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Claims is the token payload.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Accounts looks up a stored password hash. found is false when no account
// exists for the username.
type Accounts interface {
	PasswordHash(username, role string) (hash string, found bool, err error)
}

// Issuer signs and validates HS256 tokens.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (i *Issuer) Generate(username, role string) (string, error) {
	now := i.now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tutor-portal",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// Login checks the credentials and returns a signed token. Accounts
// without a stored hash are let in on username alone.
func (i *Issuer) Login(accounts Accounts, username, password, role string) (string, error) {
	if role != RoleTutor && role != RoleStudent {
		return "", ErrInvalidRole
	}
	if strings.TrimSpace(username) == "" {
		return "", ErrInvalidCredentials
	}

	hash, found, err := accounts.PasswordHash(username, role)
	if err != nil {
		return "", errors.Wrap(err, "lookup account")
	}
	if found && hash != "" && !CheckPasswordHash(password, hash) {
		return "", ErrInvalidCredentials
	}
	return i.Generate(username, role)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Middleware requires a valid bearer token and stores its claims in
// c.Locals("claims").
func (i *Issuer) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || tokenString == "" || tokenString == header {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized access"})
		}

		claims, err := i.Validate(tokenString)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by Middleware.
func ClaimsFrom(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals("claims").(*Claims)
	return claims, ok
}
