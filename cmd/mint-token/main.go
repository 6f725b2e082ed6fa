package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/classbridge/assess-backend/internal/config"
	"github.com/classbridge/assess-backend/internal/service"
)

// mint-token mints a signed JWT with the configured shared secret.
// Development and e2e helper; production tokens come from the
// identity service.
func main() {
	var (
		role   string
		userID string
		name   string
	)
	flag.StringVar(&role, "role", "instructor", "Token role: instructor or student")
	flag.StringVar(&userID, "user", "", "User ID to embed in the token")
	flag.StringVar(&name, "name", "", "Display name to embed in the token")
	flag.Parse()

	if userID == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var r service.Role
	switch role {
	case "instructor":
		r = service.RoleInstructor
	case "student":
		r = service.RoleStudent
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown role %q (want instructor or student)\n", role)
		os.Exit(1)
	}

	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	token, err := authService.GenerateToken(r, userID, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
