package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/migrations"
)

const minPasswordLength = 8

var (
	readPasswordFunc = term.ReadPassword // mockable
	gooseRunFunc     = goose.RunContext  // mockable

	errHelp = errors.New("help provided")
)

type adminStore interface {
	Create(ctx context.Context, admin *models.AdminAccount) error
	UpdatePassword(ctx context.Context, email, passwordHash string, updatedAt time.Time) error
}

type schoolUpserter interface {
	Upsert(ctx context.Context, id, name string) (*models.School, error)
}

type commandLine struct {
	db      *sql.DB
	admins  adminStore
	schools schoolUpserter
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                        - run goose migrations (up, down, status, version, redo, up-to N, down-to N)")
	fmt.Fprintln(cli.out, "  addschool -id SLUG -name NAME                 - create or rename a school")
	fmt.Fprintln(cli.out, "  addadmin -email EMAIL -name NAME [-school ID] - create an admin account; the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                    - reset an admin's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ContinueOnError)
	addSchoolCmd.SetOutput(cli.out)
	schoolID := addSchoolCmd.String("id", "", "The school's public slug.")
	schoolName := addSchoolCmd.String("name", "", "The school's display name.")

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ContinueOnError)
	addAdminCmd.SetOutput(cli.out)
	addAdminEmail := addAdminCmd.String("email", "", "The admin's login email.")
	addAdminName := addAdminCmd.String("name", "", "The admin's full name.")
	addAdminSchool := addAdminCmd.String("school", "", "The school the admin manages. Leave empty for an unscoped account.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The admin's login email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *schoolID == "" || *schoolName == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		school, err := cli.schools.Upsert(ctx, *schoolID, *schoolName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "school %s saved as %q\n", school.ID, school.Name)
		return nil
	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminEmail == "" || *addAdminName == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.addAdmin(ctx, *addAdminEmail, *addAdminName, *addAdminSchool, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordEmail, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return string(pwd), nil
}

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseRunFunc(ctx, args[0], cli.db, ".", args[1:]...)
}

func (cli *commandLine) addAdmin(ctx context.Context, email, name, school, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &models.AdminAccount{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(name),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if school = strings.TrimSpace(school); school != "" {
		admin.SchoolID = &school
	}
	if err := cli.admins.Create(ctx, admin); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "admin %s created (%s)\n", admin.Email, admin.ID)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := cli.admins.UpdatePassword(ctx, email, string(hash), time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no admin with email %q", email)
		}
		return err
	}
	fmt.Fprintf(cli.out, "password updated for %s\n", email)
	return nil
}
