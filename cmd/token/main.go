// Command token prints a bearer token for the write endpoints, signed with
// JWT_SECRET from the environment.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/heatmap-backend-go/internal/config"
	"github.com/jengzang/heatmap-backend-go/internal/middleware"
)

func main() {
	subject := flag.String("subject", "device", "token subject")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()

	now := time.Now()
	token, err := middleware.IssueToken(cfg.JWTSecret, *subject, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to sign token")
	}

	fmt.Println(token)
}
