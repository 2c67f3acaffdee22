package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter collects connection parameters the config file left empty. It
// asks only for missing fields, so a fully populated file never prompts.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// password reads one secret without echo; nil falls back to a plain
	// line read (e.g. when stdin is not a terminal).
	password func() (string, error)
}

func NewPrompter() *Prompter {
	p := &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		p.password = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			return string(b), err
		}
	}
	return p
}

// FillMissing prompts for any connection parameter still empty. With the
// MySQL side in play it is gathered first, and its details are offered for
// reuse on the PostgreSQL side.
func (p *Prompter) FillMissing(cfg *Config, useCSV bool) error {
	if !useCSV {
		if err := p.fillMySQL(&cfg.MySQL); err != nil {
			return err
		}
		if p.postgresIncomplete(&cfg.Postgres) {
			fmt.Fprintf(p.out, "MySQL connection: %s@%s:%d/%s\n",
				cfg.MySQL.User, cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.Database)
			same, err := p.confirm("Are the details the same for postgres? (y/N) ")
			if err != nil {
				return err
			}
			if same {
				if cfg.Postgres.Database == "" {
					cfg.Postgres.Database = cfg.MySQL.Database
				}
				if cfg.Postgres.User == "" {
					cfg.Postgres.User = cfg.MySQL.User
				}
				if cfg.Postgres.Password == "" {
					cfg.Postgres.Password = cfg.MySQL.Password
				}
				return nil
			}
		}
	}
	return p.fillPostgres(&cfg.Postgres)
}

func (p *Prompter) fillMySQL(cfg *MySQLConfig) error {
	if err := p.ask("MySQL database name: ", &cfg.Database); err != nil {
		return err
	}
	if err := p.ask("MySQL host: ", &cfg.Host); err != nil {
		return err
	}
	if err := p.askPort("MySQL port: ", &cfg.Port); err != nil {
		return err
	}
	if err := p.ask("MySQL user: ", &cfg.User); err != nil {
		return err
	}
	return p.askSecret("MySQL password: ", &cfg.Password)
}

func (p *Prompter) fillPostgres(cfg *PostgresConfig) error {
	if err := p.ask("PostgreSQL database name: ", &cfg.Database); err != nil {
		return err
	}
	if err := p.ask("PostgreSQL host: ", &cfg.Host); err != nil {
		return err
	}
	if err := p.askPort("PostgreSQL port: ", &cfg.Port); err != nil {
		return err
	}
	if err := p.ask("PostgreSQL user: ", &cfg.User); err != nil {
		return err
	}
	return p.askSecret("PostgreSQL password: ", &cfg.Password)
}

func (p *Prompter) postgresIncomplete(cfg *PostgresConfig) bool {
	return cfg.Database == "" || cfg.User == "" || cfg.Password == ""
}

func (p *Prompter) ask(label string, dst *string) error {
	if *dst != "" {
		return nil
	}
	fmt.Fprint(p.out, label)
	line, err := p.readLine()
	if err != nil {
		return err
	}
	*dst = line
	return nil
}

func (p *Prompter) askPort(label string, dst *int) error {
	if *dst != 0 {
		return nil
	}
	fmt.Fprint(p.out, label)
	line, err := p.readLine()
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(line)
	if err != nil {
		return fmt.Errorf("invalid port %q", line)
	}
	*dst = port
	return nil
}

func (p *Prompter) askSecret(label string, dst *string) error {
	if *dst != "" {
		return nil
	}
	fmt.Fprint(p.out, label)
	if p.password != nil {
		secret, err := p.password()
		if err != nil {
			return err
		}
		*dst = secret
		return nil
	}
	line, err := p.readLine()
	if err != nil {
		return err
	}
	*dst = line
	return nil
}

func (p *Prompter) confirm(label string) (bool, error) {
	fmt.Fprint(p.out, label)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "y"), nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
