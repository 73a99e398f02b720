// Package cli implements the storefront maintenance subcommands.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ronak-creation/storefront/internal/auth"
)

const usage = `usage: storefront [command]

Without a command the HTTP server starts.

commands:
  hash-password [--password P]         print a bcrypt hash for ADMIN_PASSWORD_HASH
  jobs trigger NAME [--ids a,b]        enqueue catalog:warmup or media:cleanup
  jobs stats                           print default queue counters as JSON
`

// Run executes a subcommand and returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	var err error
	switch args[0] {
	case "hash-password":
		err = hashPassword(args[1:], stdin, stdout)
	case "jobs":
		err = jobsCommand(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		err = fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func hashPassword(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := pflag.NewFlagSet("hash-password", pflag.ContinueOnError)
	password := flags.StringP("password", "p", "", "password to hash; read from stdin when empty")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*password = strings.TrimRight(line, "\r\n")
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func jobsCommand(ctx context.Context, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("jobs", pflag.ContinueOnError)
	redisAddr := flags.String("redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address")
	ids := flags.StringSlice("ids", nil, "public ids for media:cleanup")
	if err := flags.Parse(args); err != nil {
		return err
	}
	rest := flags.Args()
	if len(rest) == 0 {
		return errors.New("jobs: expected trigger or stats")
	}

	switch rest[0] {
	case "trigger":
		if len(rest) < 2 {
			return errors.New("jobs trigger: job name required")
		}
		// Reject bad input before dialling redis.
		if _, err := BuildTask(rest[1], *ids); err != nil {
			return err
		}
		c, err := NewJobsCLI(*redisAddr)
		if err != nil {
			return err
		}
		defer c.Close()
		info, err := c.Trigger(ctx, rest[1], *ids)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "enqueued %s as %s\n", info.Type, info.ID)
		return err
	case "stats":
		c, err := NewJobsCLI(*redisAddr)
		if err != nil {
			return err
		}
		defer c.Close()
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	default:
		return fmt.Errorf("jobs: unknown action %q", rest[0])
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
