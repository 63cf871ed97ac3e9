package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/joho/godotenv"
	"github.com/pageauth/pageauth"
	"github.com/pageauth/pageauth/config"
	"github.com/pageauth/pageauth/notify"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config  *config.Config
	bunDB   *bun.DB
	auth    pageauth.Authenticator
	auther  pageauth.HTTPAuthenticator
	repo    pageauth.RepositoryManager
	checker *pageauth.AccessChecker
	mailer  pageauth.Mailer
	srv     router.Server[*fiber.App]
	logger  *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrDefault(os.Getenv("CONFIG_PATH"))

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(logLevel(cfg.App.LogLevel)),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	if cfg.App.Env == "local" {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg))
		fmt.Println("============")
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		panic(err)
	}

	ProtectedRoutes(app)

	app.srv.Serve(cfg.App.HTTPAddr)

	WaitExitSignal()
}

func logLevel(level string) string {
	switch level {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "warn":
		return glog.Warn
	case "error":
		return glog.Error
	default:
		return glog.Info
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DB.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*pageauth.User)(nil))
	persistence.RegisterModel((*pageauth.PasswordReset)(nil))
	persistence.RegisterModel((*pageauth.Verification)(nil))
	persistence.RegisterModel((*pageauth.Todo)(nil))
	persistence.RegisterModel((*pageauth.PageRule)(nil))

	client, err := persistence.New(app.config.DB, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(pageauth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	client.RegisterFixtures(pageauth.GetFixturesFS())

	if err := client.Seed(ctx); err != nil {
		return err
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		fmt.Printf("report: %s\n", report.String())
	}

	app.bunDB = client.DB()
	app.repo = pageauth.NewRepositoryManager(client.DB())
	app.checker = pageauth.NewAccessChecker(app.repo.PageRules()).
		WithLogger(app.GetLogger("access"))

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	views, err := fs.Sub(pageauth.GetViewsFS(), "views")
	if err != nil {
		return err
	}

	engine := django.NewPathForwardingFileSystem(http.FS(views), "/", ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))
	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.Redirect("/login", fiber.StatusFound)
	})

	assets, err := fs.Sub(pageauth.GetPublicFS(), "public")
	if err != nil {
		return err
	}

	srv.Router().Static("/", ".", router.Static{
		FS:   assets,
		Root: ".",
	})

	app.srv = srv

	return nil
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.config.Auth

	if err := app.repo.Validate(); err != nil {
		return err
	}

	userProvider := pageauth.NewUserProvider(userTrackerAdapter{users: app.repo.Users()})
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := pageauth.NewAuthenticator(userProvider, cfg)
	authenticator.WithLogger(app.GetLogger("auth:authz"))

	app.auth = authenticator

	httpAuth, err := pageauth.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}
	httpAuth.Logger = app.GetLogger("auth:http")

	app.auther = httpAuth
	app.mailer = makeMailer(app)

	pageauth.RegisterAuthRoutes(app.srv.Router().Group("/"),
		func(ac *pageauth.AuthController) *pageauth.AuthController {
			ac.Debug = app.config.App.Env == "local"
			ac.Logger = app.GetLogger("auth:ctrl")
			ac.Repo = app.repo
			ac.Auther = httpAuth
			ac.Auth = authenticator
			ac.Mailer = app.mailer
			return ac
		})

	return nil
}

// userTrackerAdapter narrows the repository surface to what the user
// provider needs, the repository methods take optional select criteria.
type userTrackerAdapter struct {
	users pageauth.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*pageauth.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *pageauth.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSucccessfulLogin(ctx context.Context, user *pageauth.User) error {
	return a.users.TrackSucccessfulLogin(ctx, user)
}

func makeMailer(app *App) pageauth.Mailer {
	cfg := app.config.Email

	if cfg.Driver == "smtp" {
		return notify.NewSMTPMailer(notify.Config{
			SMTPHost: cfg.SMTPHost,
			SMTPPort: cfg.SMTPPort,
			SMTPUser: cfg.SMTPUser,
			SMTPPass: cfg.SMTPPass,
			From:     cfg.From,
			BaseURL:  app.config.App.BaseURL,
		}, app.GetLogger("mailer"))
	}

	return notify.NewConsoleMailer(app.config.App.BaseURL)
}

func ProtectedRoutes(app *App) {
	cfg := app.config.Auth

	protected := app.auther.ProtectedRoute(cfg, app.auther.MakeClientRouteAuthErrorHandler(false))
	pageGuard := pageauth.RequirePageAccess(app.checker, cfg.GetContextKey())

	app.srv.Router().Get("/admin", AdminPage(app), protected, pageGuard)

	api := app.srv.Router().Group("/")
	api.Use(app.auther.ProtectedRoute(cfg, apiAuthErrorHandler))

	pageauth.RegisterProfileRoutes(api, func(pc *pageauth.ProfileController) *pageauth.ProfileController {
		pc.Logger = app.GetLogger("profile")
		pc.Repo = app.repo
		pc.ContextKey = cfg.GetContextKey()
		return pc
	})

	pageauth.RegisterTodoRoutes(api, func(tc *pageauth.TodoController) *pageauth.TodoController {
		tc.Logger = app.GetLogger("todos")
		tc.Repo = app.repo
		tc.ContextKey = cfg.GetContextKey()
		return tc
	})

	pageauth.RegisterAccessRoutes(api, func(ac *pageauth.AccessController) *pageauth.AccessController {
		ac.Logger = app.GetLogger("access:ctrl")
		ac.Checker = app.checker
		ac.ContextKey = cfg.GetContextKey()
		return ac
	})
}

// AdminPage renders the admin landing page, the page rules decide who
// gets this far
func AdminPage(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		session, err := pageauth.GetRouterSession(ctx, app.config.Auth.GetContextKey())
		if err != nil {
			return err
		}

		return ctx.Render("admin", router.ViewContext{
			"user_id": session.GetUserID(),
			"role":    string(session.GetRole()),
		})
	}
}

// apiAuthErrorHandler keeps API routes JSON only, no login redirects
func apiAuthErrorHandler(c router.Context, err error) error {
	return c.JSON(fiber.StatusUnauthorized, map[string]any{
		"error":     "authentication required",
		"text_code": "UNAUTHORIZED",
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
