package cli

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ketabyar/ketabyar/internal/auth"
	"github.com/ketabyar/ketabyar/internal/config"
	"github.com/ketabyar/ketabyar/internal/database"
	"github.com/ketabyar/ketabyar/internal/entities"
)

type CreateUserCommand struct {
	Username     string
	Email        string
	Password     string
	Role         string
	Level        string
	DatabasePath string
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new account (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, read from KETABYAR_PASSWORD when empty")
	fs.StringVar(&cmd.Role, "role", string(entities.UserRoleReader), "Account role: reader, editor or admin")
	fs.StringVar(&cmd.Level, "level", string(entities.LevelBeginner), "Reading level: beginner, intermediate or advanced")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account directly in the database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username admin -email admin@example.com -role admin\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-user -username sara -email sara@example.com -level intermediate\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		fs.Usage()
		return fmt.Errorf("username is required")
	}
	if cmd.Email == "" {
		fs.Usage()
		return fmt.Errorf("email is required")
	}
	if cmd.Password == "" {
		cmd.Password = os.Getenv("KETABYAR_PASSWORD")
	}
	if cmd.Password == "" {
		return fmt.Errorf("password is required (use -password or KETABYAR_PASSWORD)")
	}

	switch entities.UserRole(cmd.Role) {
	case entities.UserRoleReader, entities.UserRoleEditor, entities.UserRoleAdmin:
	default:
		return fmt.Errorf("unknown role: %s", cmd.Role)
	}
	if !entities.Level(cmd.Level).IsValid() {
		return fmt.Errorf("unknown level: %s", cmd.Level)
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	service := auth.NewService(db.DB, cfg.Auth)

	user, err := service.CreateUser(cmd.Username, cmd.Email, cmd.Password, entities.UserRole(cmd.Role), entities.Level(cmd.Level))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created %s user %q (id %d, level %s)\n", user.Role, user.Username, user.ID, user.ReadingLevel())

	return nil
}
