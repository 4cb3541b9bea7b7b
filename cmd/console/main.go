package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/myfamilydoc/go-console-client/console"
	"github.com/myfamilydoc/go-console-client/internal/config"
	"github.com/myfamilydoc/go-console-client/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	app, err := console.New(c)
	if err != nil {
		return fmt.Errorf("console.New %w", err)
	}

	command := "whoami"
	if len(args) > 0 {
		command = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch command {
	case "login":
		return login(ctx, app)
	case "whoami":
		return whoami(app)
	case "logout":
		app.Session.Logout(ctx)
		log.Printf("Logged out\n")
		return nil
	case "health":
		return health(ctx, app)
	default:
		return fmt.Errorf("unknown command %q (expected login, whoami, logout or health)", command)
	}
}

func login(ctx context.Context, app *console.Console) error {
	reader := bufio.NewReader(os.Stdin)

	email, err := prompt(reader, "Email: ")
	if err != nil {
		return err
	}
	password, err := prompt(reader, "Password: ")
	if err != nil {
		return err
	}

	if err := app.Session.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login %w", err)
	}
	log.Printf("Verification code sent to %s\n", email)

	otp, err := prompt(reader, "Code: ")
	if err != nil {
		return err
	}
	if err := app.Session.VerifyOTP(ctx, otp); err != nil {
		return fmt.Errorf("verify %w", err)
	}
	return whoami(app)
}

func whoami(app *console.Console) error {
	if err := restore(app); err != nil {
		return err
	}
	ident, ok := app.Session.CurrentUser()
	if !ok {
		log.Printf("Not signed in\n")
		return nil
	}
	log.Printf("Signed in as %s (%s)\n", ident.Email, ident.Role)
	return nil
}

func health(ctx context.Context, app *console.Console) error {
	status, err := app.Health.Check(ctx)
	if err != nil {
		return fmt.Errorf("health check %w", err)
	}
	log.Printf("Backend %s in %s\n", status.Status, status.ResponseTime)
	return nil
}

// restore rebuilds the session from a stored token; not having one is a
// normal state, not an error.
func restore(app *console.Console) error {
	err := app.Session.Restore()
	if err == nil || errors.Is(err, session.NoSessionErr) {
		return nil
	}
	return fmt.Errorf("session restore %w", err)
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input %w", err)
	}
	return strings.TrimSpace(line), nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
