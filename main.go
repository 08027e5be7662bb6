package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"transporte-admin/api"
	"transporte-admin/config"
	"transporte-admin/live"
	"transporte-admin/session"
	"transporte-admin/tracking"
)

type commandFunc func(ctx context.Context, args []string, out io.Writer) error

var commands = map[string]commandFunc{
	"serve":      runServe,
	"login":      runLogin,
	"logout":     runLogout,
	"whoami":     runWhoami,
	"usuarios":   runUsuarios,
	"operarios":  runOperarios,
	"adelantos":  runAdelantos,
	"descuentos": runDescuentos,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
	if err := cmd(ctx, args[1:], stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: transporte-admin <command> [flags]")
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintln(w, "  "+name)
	}
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configPath string
	logLevel   string
}

func newFlagSet(name string) (*pflag.FlagSet, *commonFlags) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "path to config.yml")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	return fs, c
}

// env is what a command needs after flags are parsed.
type env struct {
	cfg   config.AppConfig
	log   *slog.Logger
	store *session.Store
	sess  session.Session
	api   *api.Client
}

func (c *commonFlags) load() (*env, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	log := InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	store, err := session.NewStore(cfg.Session.Path)
	if err != nil {
		return nil, err
	}
	sess, err := store.Load()
	if err != nil {
		return nil, err
	}
	client, err := api.New(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout), api.WithToken(sess.Token))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, store: store, sess: sess, api: client}, nil
}

// sessionCheck forgets the stored login once the API rejects it.
func (e *env) sessionCheck(err error) error {
	if errors.Is(err, api.ErrSessionExpired) {
		if cerr := e.store.Clear(); cerr != nil {
			e.log.Warn("could not clear expired session", "error", cerr)
		}
	}
	return err
}

func runServe(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("serve")
	port := fs.Int("port", 0, "HTTP port (overrides server.port)")
	token := fs.String("token", "", "bearer token for the live feed (defaults to the stored session)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	cfg := e.cfg
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *token == "" {
		*token = e.sess.Token
	}
	return serve(ctx, cfg, *token, e.log)
}

func serve(ctx context.Context, cfg config.AppConfig, token string, log *slog.Logger) error {
	hub := newHub(log)

	var sinks []live.BatchSink
	if len(cfg.Mirror.Brokers) > 0 {
		mirror := newBatchMirror(cfg.Mirror.Brokers, cfg.Mirror.Topic)
		defer func() {
			if err := mirror.Close(); err != nil {
				log.Warn("mirror close", "error", err)
			}
		}()
		sinks = append(sinks, mirror)
	}

	view := live.NewView(live.ViewConfig{
		Client: live.ClientConfig{
			URL:            cfg.Live.URL,
			Token:          token,
			Topic:          cfg.Live.Topic,
			ReconnectDelay: cfg.Live.ReconnectDelay,
			HeartBeat:      cfg.Live.HeartBeat,
		},
		Animation: tracking.Config{
			Warmup:  cfg.Animation.Warmup,
			Tick:    cfg.Animation.Tick,
			Frame:   cfg.Animation.Frame,
			Palette: cfg.Animation.Palette,
		},
	}, hub, log, sinks...)

	if token == "" {
		log.Warn("no session token, live positions disabled; run login first")
	}

	router := mux.NewRouter()
	registerRoutes(router, hub, cfg.Server.StaticDir, log)
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return view.Run(gctx) })
	if feed := selectFeed(cfg.Feeds); feed != nil {
		poll := newPoller(feed, view, cfg.Feeds.RefreshMinSecs, log)
		g.Go(func() error {
			poll.run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		log.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d/", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown initiated")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Wrap(srv.Shutdown(sctx), "http server shutdown")
	})
	return g.Wait()
}
