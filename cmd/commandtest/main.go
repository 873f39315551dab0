// Command commandtest runs prompts through the interpreter against a seed file,
// without HTTP or auth. Prompts come from the arguments or, one per line, stdin.
//
//	go run ./cmd/commandtest -seed testdata/seed.json -tenant demo "how many leads do I have"
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wolfman30/crm-assistant/cmd/mainconfig"
	"github.com/wolfman30/crm-assistant/internal/app/bootstrap"
	"github.com/wolfman30/crm-assistant/internal/assistant"
	"github.com/wolfman30/crm-assistant/internal/records"
	"github.com/wolfman30/crm-assistant/internal/tenancy"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

type options struct {
	seed     string
	tenant   string
	email    string
	role     string
	testData bool
	asJSON   bool
	logLevel string
}

func main() {
	mainconfig.LoadEnvFiles()

	var opts options
	flag.StringVar(&opts.seed, "seed", envOr("SEED_FILE", "testdata/seed.json"), "JSON seed file")
	flag.StringVar(&opts.tenant, "tenant", "demo", "tenant to scope queries to")
	flag.StringVar(&opts.email, "email", "ana@example.com", "caller email")
	flag.StringVar(&opts.role, "role", string(tenancy.RoleUser), "caller role: user, admin or superadmin")
	flag.BoolVar(&opts.testData, "include-test-data", false, "include records flagged as test data")
	flag.BoolVar(&opts.asJSON, "json", false, "print full JSON responses")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	flag.Parse()

	if err := run(context.Background(), opts, flag.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "commandtest:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, args []string, stdin io.Reader, out io.Writer) error {
	repo := records.NewInMemoryRepository()
	if strings.TrimSpace(opts.seed) != "" {
		if _, err := bootstrap.SeedFromFile(repo, opts.seed); err != nil {
			return err
		}
	}
	interp := assistant.NewInterpreter(repo, logging.NewWithWriter(os.Stderr, opts.logLevel))

	prompts := args
	if len(prompts) == 0 {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				prompts = append(prompts, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read prompts: %w", err)
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	for _, prompt := range prompts {
		resp, err := interp.Interpret(ctx, assistant.CommandRequest{
			Text:            prompt,
			CallerEmail:     strings.ToLower(opts.email),
			CallerRole:      tenancy.ParseRole(opts.role),
			IncludeTestData: opts.testData,
			TenantID:        opts.tenant,
		})
		if err != nil {
			return fmt.Errorf("%q: %w", prompt, err)
		}
		if opts.asJSON {
			if err := enc.Encode(resp); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "> %s\n[%s] %s\n\n", prompt, resp.Intent, resp.SummaryMessage)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
