package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/ctf-console/config"
	"github.com/target/ctf-console/internal/adapters/directory"
	redisadapter "github.com/target/ctf-console/internal/adapters/redis"
	"github.com/target/ctf-console/internal/apiclient"
	"github.com/target/ctf-console/internal/bootstrap"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/domain/routes"
	apperrors "github.com/target/ctf-console/internal/errors"
	"github.com/target/ctf-console/internal/util"
)

func runRoutes(cmdCtx *commandContext, _ []string) error {
	table, err := bootstrap.RouteTable(cmdCtx.Config.Routes)
	if err != nil {
		return err
	}
	return printRouteTable(cmdCtx.Out, table.Rules())
}

func printRouteTable(w io.Writer, rules []routes.Rule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "#\tPATTERN\tCLASS\tROLES\n"); err != nil {
		return err
	}
	for i, r := range rules {
		roles := "default"
		if len(r.Roles) > 0 {
			names := make([]string, len(r.Roles))
			for j, role := range r.Roles {
				names[j] = string(role)
			}
			roles = strings.Join(names, ",")
		}
		if err := writef(tw, "%d\t%s\t%s\t%s\n", i+1, r.Pattern, r.Class, roles); err != nil {
			return err
		}
	}
	if err := writef(tw, "-\t(anything else)\t%s\tany known role\n", routes.ClassAuthenticated); err != nil {
		return err
	}
	return tw.Flush()
}

type checkRouteOptions struct {
	Path string
	Role string
	User string
}

func parseCheckRouteFlags(args []string) (checkRouteOptions, error) {
	var opts checkRouteOptions
	fs := flag.NewFlagSet("check-route", flag.ContinueOnError)
	fs.StringVar(&opts.Path, "path", "", "path to classify (required)")
	fs.StringVar(&opts.Role, "role", "", "role of the navigating user; empty means signed in without a role")
	fs.StringVar(&opts.User, "user", "cli-user", "user id; empty means signed out")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if strings.TrimSpace(opts.Path) == "" {
		return opts, errors.New("-path is required")
	}
	if opts.Role != "" && domainauth.ParseRole(opts.Role) == domainauth.RoleNone && !strings.EqualFold(opts.Role, "NONE") {
		return opts, fmt.Errorf("unknown role %q", opts.Role)
	}
	return opts, nil
}

func runCheckRoute(cmdCtx *commandContext, args []string) error {
	opts, err := parseCheckRouteFlags(args)
	if err != nil {
		return err
	}
	authz, _, err := bootstrap.BuildAuthorizer(bootstrap.AuthorizerDeps{
		Routes: cmdCtx.Config.Routes,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	sess := domainauth.Session{UserID: opts.User, Role: domainauth.ParseRole(opts.Role)}
	d := authz.Authorize(cmdCtx.Ctx, opts.Path, sess.Principal())
	return printDecision(cmdCtx.Out, d)
}

func printDecision(w io.Writer, d routes.Decision) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	lines := [][2]string{
		{"Path", d.Path},
		{"Class", string(d.Class)},
		{"Role", string(d.Role)},
		{"State", string(d.State)},
	}
	if d.Target != "" {
		lines = append(lines, [2]string{"Redirect", d.Target})
	}
	for _, l := range lines {
		if err := writef(tw, "%s:\t%s\n", l[0], l[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type callOptions struct {
	Method  string
	Path    string
	Body    string
	Timeout time.Duration
}

func parseCallFlags(args []string) (callOptions, error) {
	var opts callOptions
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.StringVar(&opts.Method, "method", "GET", "HTTP method")
	fs.StringVar(&opts.Path, "path", "", "path relative to API_BASE_URL (required)")
	fs.StringVar(&opts.Body, "body", "", "JSON request body")
	fs.DurationVar(&opts.Timeout, "timeout", time.Minute, "overall deadline including retries")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Path == "" {
		return opts, errors.New("-path is required")
	}
	if opts.Body != "" && !json.Valid([]byte(opts.Body)) {
		return opts, errors.New("-body must be valid JSON")
	}
	return opts, nil
}

func runCall(cmdCtx *commandContext, args []string) error {
	opts, err := parseCallFlags(args)
	if err != nil {
		return err
	}
	client, err := bootstrap.ConfigureAPIClient(cmdCtx.Ctx, bootstrap.ClientDeps{
		Config: cmdCtx.Config.Client,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmdCtx, opts.Timeout)
	defer cancel()

	req := apiclient.Request{Method: opts.Method, Path: opts.Path}
	if opts.Body != "" {
		req.Body = json.RawMessage(opts.Body)
	}
	start := time.Now()
	resp, err := client.Send(ctx, req)
	if err != nil {
		return describeCallError(cmdCtx.Out, err)
	}
	return printResponse(cmdCtx.Out, resp, time.Since(start))
}

func printResponse(w io.Writer, resp *apiclient.Response, took time.Duration) error {
	if err := writef(w, "Status: %d (attempts: %d, took %s)\n", resp.Status, resp.Attempts, util.FormatDuration(took)); err != nil {
		return err
	}
	if len(resp.Body) == 0 {
		return nil
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, resp.Body, "", "  ") != nil {
		return writef(w, "%s\n", resp.Body)
	}
	return writef(w, "%s\n", pretty.String())
}

func describeCallError(w io.Writer, err error) error {
	if status := apperrors.StatusOf(err); status != 0 {
		if werr := writef(w, "Status: %d\n", status); werr != nil {
			return werr
		}
	}
	for field, msg := range apperrors.FieldsOf(err) {
		if werr := writef(w, "  %s: %s\n", field, msg); werr != nil {
			return werr
		}
	}
	return err
}

func runWhoami(cmdCtx *commandContext, _ []string) error {
	src := bootstrap.ServiceSession(cmdCtx.Ctx, cmdCtx.Config.Client)
	if src == nil {
		return writef(cmdCtx.Out, "No service credentials configured; API calls are unauthenticated.\n")
	}
	if err := writef(cmdCtx.Out, "Principal: %s\n", src.PrincipalID()); err != nil {
		return err
	}
	ctx, cancel := contextWithTimeout(cmdCtx, 30*time.Second)
	defer cancel()
	tok, err := src.Token(ctx)
	if err != nil {
		return fmt.Errorf("fetch token: %w", err)
	}
	return writef(cmdCtx.Out, "Token: %s\n", redactToken(tok))
}

func redactToken(tok string) string {
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:4] + "..." + tok[len(tok)-4:]
}

type roleOptions struct {
	User string
	Role string
}

func parseRoleFlags(name string, args []string, needRole bool) (roleOptions, error) {
	var opts roleOptions
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&opts.User, "user", "", "external user id (required)")
	if needRole {
		fs.StringVar(&opts.Role, "role", "", "USER, CREATOR, ADMIN or SUPERADMIN (required)")
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.User == "" {
		return opts, errors.New("-user is required")
	}
	if needRole && !domainauth.ParseRole(opts.Role).Known() {
		return opts, fmt.Errorf("unknown role %q", opts.Role)
	}
	return opts, nil
}

func runLookupRole(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoleFlags("lookup-role", args, false)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config
	// Bypass the cache so the answer reflects the directory itself.
	cfg.Directory.CacheTTL = 0

	conns, err := openConnections(cmdCtx, cfg, cfg.Directory.Backend == config.DirectoryPostgres)
	if err != nil {
		return err
	}
	defer conns.Close(cmdCtx)

	var client *apiclient.Client
	if cfg.Directory.Backend == config.DirectoryHTTP {
		if client, err = bootstrap.ConfigureAPIClient(cmdCtx.Ctx, bootstrap.ClientDeps{Config: cfg.Client, Logger: cmdCtx.Logger}); err != nil {
			return err
		}
	}
	dir, err := bootstrap.BuildDirectory(bootstrap.DirectoryDeps{
		Config:    cfg.Directory,
		Pool:      conns.Pool,
		APIClient: client,
		Logger:    cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	if dir == nil {
		return errors.New("no directory configured (DIRECTORY_BACKEND=none)")
	}

	ctx, cancel := contextWithTimeout(cmdCtx, 30*time.Second)
	defer cancel()
	start := time.Now()
	role, err := dir.LookupRole(ctx, opts.User)
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out, "%s\t%s\t(%s, %s)\n", opts.User, role, cfg.Directory.Backend, util.FormatDuration(time.Since(start)))
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoleFlags("set-role", args, true)
	if err != nil {
		return err
	}
	conns, err := openConnections(cmdCtx, cmdCtx.Config, true)
	if err != nil {
		return err
	}
	defer conns.Close(cmdCtx)

	ctx, cancel := contextWithTimeout(cmdCtx, 30*time.Second)
	defer cancel()

	pg, err := directory.NewPostgres(conns.Pool)
	if err != nil {
		return err
	}
	role := domainauth.ParseRole(opts.Role)
	if err := pg.UpsertRole(ctx, opts.User, role); err != nil {
		return err
	}

	if conns.Redis != nil {
		cache := redisadapter.NewRoleCache(conns.Redis, cmdCtx.Config.Redis.RolePrefix)
		if err := cache.Delete(ctx, opts.User); err != nil {
			cmdCtx.Logger.WarnContext(ctx, "drop cached role failed", "user", opts.User, "error", err)
		}
	}
	return writef(cmdCtx.Out, "%s\t%s\n", opts.User, role)
}
