// Command panelctl is a terminal client for the panel API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
	"github.com/slayerbot/panel/internal/client"
	"github.com/slayerbot/panel/internal/config"
	"github.com/slayerbot/panel/internal/editor"
	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/internal/sessions"
	"github.com/slayerbot/panel/pkg/logger"
)

const usage = `usage: panelctl [flags] <command> [args]

commands:
  login-url                              print the Discord consent URL
  callback <code|redirect-url>           exchange a code and store the session
  whoami                                 show the logged in user
  logout                                 forget the stored session
  servers                                list your servers
  logs <guild> [set <category> <channel|none>]... [reset <category>]...
  language <guild> [set <code>]

flags:
`

type app struct {
	cfg     *config.ClientConfig
	api     *client.Client
	session *sessions.Manager
	out     io.Writer
}

func main() {
	fs := flag.NewFlagSet("panelctl", flag.ExitOnError)
	apiURL := fs.String("api", "", "panel API base URL (default $PANEL_API_URL)")
	tokenFile := fs.String("token-file", "", "session token file (default $PANEL_TOKEN_FILE or user config dir)")
	redisAddr := fs.String("redis", "", "keep the session in Redis at this address instead of a file")
	profile := fs.String("profile", "default", "session profile name when using -redis")
	logLevel := fs.String("log-level", "warn", "debug|info|warn|error")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	logger.Init(*logLevel)

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg := config.LoadClientConfig()
	if *apiURL != "" {
		cfg.APIURL = strings.TrimRight(*apiURL, "/")
	}
	if *tokenFile != "" {
		cfg.TokenFile = *tokenFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openStore(cfg, *redisAddr, *profile)
	if err != nil {
		logger.Fatalf("token store: %v", err)
	}
	api := client.New(cfg.APIURL, nil, sessions.TokenSource(ctx, store))
	a := &app{cfg: cfg, api: api, session: sessions.NewManager(store, api), out: os.Stdout}

	if err := a.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "panelctl:", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.ClientConfig, redisAddr, profile string) (sessions.Store, error) {
	if redisAddr != "" {
		return sessions.NewRedisStore(redis.NewClient(&redis.Options{Addr: redisAddr}), "", profile), nil
	}
	path := cfg.TokenFile
	if path == "" {
		p, err := sessions.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return sessions.NewFileStore(path), nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login-url":
		fmt.Fprintln(a.out, client.LoginURL(a.cfg.ClientID, a.cfg.RedirectURI))
		return nil
	case "callback":
		return a.callback(ctx, args)
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.out, "logged out")
		return nil
	}

	// everything else needs a verified session
	if st := a.session.Init(ctx); !st.Authenticated {
		return fmt.Errorf("not logged in, run: panelctl login-url")
	}
	switch cmd {
	case "whoami":
		u, _ := a.session.RequireAuth()
		fmt.Fprintf(a.out, "%s (%s) id=%s\n", u.Username, u.Discriminator, u.ID)
		return nil
	case "servers":
		return a.servers(ctx)
	case "logs":
		return a.logs(ctx, args)
	case "language":
		return a.language(ctx, args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// callback accepts either the bare code or the full redirect URL.
func (a *app) callback(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: callback <code|redirect-url>")
	}
	q := url.Values{"code": {args[0]}}
	if u, err := url.Parse(args[0]); err == nil && u.RawQuery != "" {
		q = u.Query()
	}
	res := a.api.HandleCallback(ctx, q, a.cfg.RedirectURI)
	if !res.OK() {
		if res.Err != nil {
			logger.Debugf("callback: %v", res.Err)
		}
		return fmt.Errorf("login failed: %s", res.Reason)
	}
	st, err := a.session.Login(ctx, res.Token.AccessToken)
	if err != nil {
		return fmt.Errorf("login failed: %s", client.ReasonAuthFailed)
	}
	fmt.Fprintf(a.out, "logged in as %s\n", st.User.Username)
	return nil
}

func (a *app) servers(ctx context.Context) error {
	guilds, err := a.api.Guilds(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBOT\tMANAGE")
	for _, g := range guilds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.ID, g.Name, yesNo(g.HasBot), yesNo(g.CanManage))
	}
	return w.Flush()
}

func (a *app) logs(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: logs <guild> [set <category> <channel|none>]... [reset <category>]...")
	}
	ed := editor.NewLogChannelsEditor(a.api, args[0])
	if err := ed.Load(ctx); err != nil {
		return err
	}
	for rest := args[1:]; len(rest) > 0; {
		switch {
		case rest[0] == "set" && len(rest) >= 3:
			var ch *string
			if rest[2] != "none" {
				v := rest[2]
				ch = &v
			}
			if err := ed.Set(models.LogCategory(rest[1]), ch); err != nil {
				return err
			}
			rest = rest[3:]
		case rest[0] == "reset" && len(rest) >= 2:
			ed.ResetField(models.LogCategory(rest[1]))
			rest = rest[2:]
		default:
			return fmt.Errorf("unexpected argument %q", rest[0])
		}
	}
	if ed.CanSave() {
		if err := ed.Save(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "saved")
	}
	return printLogs(a.out, ed)
}

func printLogs(out io.Writer, ed *editor.LogChannelsEditor) error {
	names := map[string]string{}
	for _, ch := range ed.Channels() {
		names[ch.ID] = "#" + ch.Name
	}
	doc := ed.Working()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, g := range models.LogCategoryGroups {
		fmt.Fprintf(w, "[%s]\t\n", g.Name)
		for _, c := range g.Categories {
			target := "-"
			if id := doc.Get(c); id != nil {
				target = *id
				if n, ok := names[*id]; ok {
					target = n + " (" + *id + ")"
				}
			}
			fmt.Fprintf(w, "  %s\t%s\n", c, target)
		}
	}
	return w.Flush()
}

func (a *app) language(ctx context.Context, args []string) error {
	if len(args) != 1 && !(len(args) == 3 && args[1] == "set") {
		return errors.New("usage: language <guild> [set <code>]")
	}
	ed := editor.NewLanguageEditor(a.api, args[0])
	if err := ed.Load(ctx); err != nil {
		return err
	}
	if len(args) == 3 {
		if err := ed.Set(models.Language(args[2])); err != nil {
			return fmt.Errorf("%w (supported: %s)", err, supportedLanguages())
		}
		if ed.CanSave() {
			if err := ed.Save(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "saved")
		}
	}
	for _, l := range models.Languages {
		if l.Code == ed.Current() {
			fmt.Fprintf(a.out, "%s: %s (%s)\n", l.Code, l.Name, l.NativeName)
		}
	}
	return nil
}

func supportedLanguages() string {
	codes := make([]string, 0, len(models.Languages))
	for _, l := range models.Languages {
		codes = append(codes, string(l.Code))
	}
	sort.Strings(codes)
	return strings.Join(codes, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
