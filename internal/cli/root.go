// Package cli wires configuration, credentials and the Classroom facade
// into the ocular commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/et0and/ocular/internal/auth"
	"github.com/et0and/ocular/internal/classroom"
	"github.com/et0and/ocular/internal/config"
	"github.com/et0and/ocular/internal/shell"
)

const timeLayout = "2006-01-02 15:04:05"

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	log    *log.Logger
	cfg    config.Config

	envFile       string
	clientSecrets string
	tokenFile     string
	noColor       bool
}

// NewRootCmd builds the command tree reading from in and writing to out.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, log: log.New(errOut, "", log.LstdFlags)}

	root := &cobra.Command{
		Use:   "ocular",
		Short: "See who has turned in your Google Classroom assignments",
		Long: `ocular lists the Google Classroom courses you teach, the assignments in
each course, and which students have turned them in.

The first run opens a browser to authorize read-only access; the grant is
cached in token.json (see OCULAR_TOKEN_FILE).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.runShell,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading OCULAR_* variables")
	pf.StringVar(&a.clientSecrets, "client-secrets", "", "OAuth client secrets file (default credentials.json)")
	pf.StringVar(&a.tokenFile, "token-file", "", "cached credential file (default token.json)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(newWhoamiCmd(a), newLogoutCmd(a), newHistoryCmd(a))
	return root
}

// Execute runs the CLI and exits 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	a.cfg = config.FromEnv()
	if cmd.Flags().Changed("client-secrets") {
		a.cfg.ClientSecretsFile = a.clientSecrets
	}
	if cmd.Flags().Changed("token-file") {
		a.cfg.TokenFile = a.tokenFile
	}
	if a.noColor {
		a.cfg.NoColor = true
	}
	return nil
}

func (a *app) store() *auth.FileStore {
	return auth.NewFileStore(a.cfg.TokenFile, a.cfg.TokenPassphrase)
}

func (a *app) manager() (*auth.Manager, error) {
	scopes := append(append([]string{}, classroom.Scopes...), auth.IdentityScopes...)
	oc, err := auth.LoadClientConfig(a.cfg.ClientSecretsFile, scopes...)
	if err != nil {
		return nil, err
	}
	return &auth.Manager{
		OAuth: oc,
		Store: a.store(),
		Flow:  &auth.LoopbackFlow{Addr: a.cfg.CallbackAddr, Out: a.out, Open: auth.OpenBrowser},
		Log:   a.log,
	}, nil
}

func (a *app) runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	mgr, err := a.manager()
	if err != nil {
		return err
	}
	// Authorize before the spinner starts so the URL prompt stays readable.
	cred, err := mgr.Credential(ctx)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if id, err := auth.ParseIdentity(cred.IDToken); err == nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", id)
	} else if !errors.Is(err, auth.ErrNoIdentity) {
		a.log.Printf("ocular: %v", err)
	}

	facade := classroom.NewFacade(func(ctx context.Context) (classroom.API, error) {
		hc, err := mgr.Client(ctx)
		if err != nil {
			return nil, err
		}
		return classroom.NewAPI(ctx, hc, a.log)
	}, a.log)

	cw, closeCache, err := buildCache(a.cfg, a.log)
	if err != nil {
		return err
	}
	defer closeCache()

	sinks, hist, closeSinks, err := buildSinks(ctx, a.cfg, a.out)
	if err != nil {
		return err
	}
	defer closeSinks()

	sh := &shell.Shell{
		Q:           facade,
		Cache:       cw,
		In:          a.in,
		Out:         a.out,
		Log:         a.log,
		Sinks:       sinks,
		Marker:      a.cfg.AttachmentMarker,
		ShowMissing: a.cfg.ShowMissing,
		Color:       !a.cfg.NoColor,
	}
	if hist != nil {
		sh.History = hist
	}
	return sh.Run(ctx)
}
