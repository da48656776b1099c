package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tukcommunity/backend/internal/accounts/app"
	"github.com/tukcommunity/backend/internal/accounts/service"
)

const usage = `usage: tukcommunity [command] [flags]

commands:
  serve            run the HTTP API (default)
  createsuperuser  create an administrator account
  migrate          apply the embedded schema migrations
`

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve()
	case "createsuperuser":
		err = createSuperuser(args)
	case "migrate":
		err = migrate()
	case "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func serve() error {
	cfg, err := app.LoadConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run()
}

func migrate() error {
	cfg, err := app.LoadConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.DB.ApplyMigrations = true

	db, err := app.OpenStore(cfg, app.NewLogger(cfg))
	if err != nil {
		return err
	}
	return db.Close()
}

func createSuperuser(args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	email := fs.String("email", "", "administrator email (required)")
	studentNum := fs.Int64("student-num", 0, "student number (required)")
	department := fs.String("department", "", "department (required)")
	nickname := fs.String("nickname", "Admin", "nickname")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx := context.Background()
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := app.NewLogger(cfg)
	app.ConfigurePepper(cfg)

	db, err := app.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	password := os.Getenv("SUPERUSER_PASSWORD")
	svc := &service.SuperuserService{Store: db}
	u, password, err := svc.CreateSuperuser(ctx, service.SuperuserInput{
		Email:      *email,
		Password:   password,
		StudentNum: *studentNum,
		Department: *department,
		Nickname:   *nickname,
	})
	var verrs service.ValidationError
	if errors.As(err, &verrs) {
		return fmt.Errorf("invalid superuser: %w", verrs)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Superuser %s created (id %d).\n", u.Email, u.ID)
	if os.Getenv("SUPERUSER_PASSWORD") == "" {
		fmt.Fprintf(os.Stdout, "Generated password: %s\n", password)
	}
	return nil
}
