package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/cache"
	"github.com/emircancapkan/karma-case/internal/config"
	"github.com/emircancapkan/karma-case/internal/logging"
	"github.com/emircancapkan/karma-case/internal/models"
	"github.com/emircancapkan/karma-case/internal/session"
)

// Run bootstraps the Karma client core and dispatches one command.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: login, signup, logout, whoami, images, generate, explore, friends, friend, check-username, check-mail, purchase, delete-account, or watch")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	deps, closeStore, err := buildDependencies(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	deps.Session.Rehydrate(ctx)

	switch args[0] {
	case "login":
		return runLogin(ctx, deps, args[1:])
	case "signup":
		return runSignup(ctx, deps, args[1:])
	case "logout":
		deps.Session.Logout(ctx)
		fmt.Println("logged out")
		return nil
	case "whoami":
		return runWhoami(deps)
	case "images":
		return runImages(ctx, deps)
	case "generate":
		return runGenerate(ctx, deps, args[1:])
	case "explore":
		return runExplore(ctx, deps, args[1:])
	case "friends":
		return runFriends(ctx, deps)
	case "friend":
		return runFriendAction(ctx, deps, args[1:])
	case "check-username":
		return runCheck(ctx, args[1:], "username", deps.Session.CheckUsername)
	case "check-mail":
		return runCheck(ctx, args[1:], "mail", deps.Session.CheckMail)
	case "purchase":
		return runPurchase(ctx, deps, args[1:])
	case "delete-account":
		if err := deps.Session.DeleteAccount(ctx); err != nil {
			return displayable(err)
		}
		fmt.Println("account deleted")
		return nil
	case "watch":
		return runWatch(ctx, cfg, deps)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runLogin(ctx context.Context, deps Dependencies, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := deps.Session.Login(ctx, *username, *password); err != nil {
		return displayable(err)
	}

	user, _ := deps.Session.CurrentUser()
	fmt.Printf("logged in as %s (credits: %s)\n", user.Username, creditsLabel(user))
	return nil
}

func runSignup(ctx context.Context, deps Dependencies, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	mail := fs.String("mail", "", "account email")
	code := fs.String("code", "", "verification code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := deps.Session.Signup(ctx, *username, *password, *mail, *code); err != nil {
		return displayable(err)
	}

	user, _ := deps.Session.CurrentUser()
	fmt.Printf("account created: %s\n", user.Username)
	return nil
}

func runWhoami(deps Dependencies) error {
	user, ok := deps.Session.CurrentUser()
	if !ok {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s <%s> premium=%t credits=%s plan=%s\n",
		user.Username, user.Mail, user.IsPremium, creditsLabel(user), user.MembershipPlan)
	return nil
}

func runImages(ctx context.Context, deps Dependencies) error {
	images, err := deps.Images.Fetch(ctx, api.ImageFilters{})
	if err != nil {
		return displayable(err)
	}
	for _, img := range images {
		fmt.Printf("%s  %s  %q\n", img.ID, img.URL, img.Prompt)
	}
	fmt.Printf("%d image(s)\n", len(images))
	return nil
}

func runGenerate(ctx context.Context, deps Dependencies, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	file := fs.String("file", "", "source photo path")
	prompt := fs.String("prompt", "", "generation prompt")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("generate: -file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	image, err := deps.Images.Generate(ctx, api.UploadRequest{
		File:      f,
		FileName:  *file,
		Latitude:  *lat,
		Longitude: *lng,
		Prompt:    *prompt,
	})
	if err != nil {
		return displayable(err)
	}

	fmt.Printf("generated %s -> %s\n", image.ID, image.URL)
	if user, ok := deps.Session.CurrentUser(); ok {
		fmt.Printf("credits remaining: %s\n", creditsLabel(user))
	}
	return nil
}

func runExplore(ctx context.Context, deps Dependencies, args []string) error {
	fs := flag.NewFlagSet("explore", flag.ContinueOnError)
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	rng := fs.Float64("range", 0, "radius in km")
	if err := fs.Parse(args); err != nil {
		return err
	}

	images, err := deps.Explore.Fetch(ctx, api.ExploreRequest{Latitude: *lat, Longitude: *lng, Range: *rng})
	if err != nil {
		return displayable(err)
	}
	for _, img := range images {
		fmt.Printf("%s  by %s  %s\n", img.ID, img.UserID, img.URL)
	}
	fmt.Printf("%d nearby image(s)\n", len(images))
	return nil
}

func runFriends(ctx context.Context, deps Dependencies) error {
	if err := deps.Friends.Fetch(ctx); err != nil {
		return displayable(err)
	}

	fmt.Println("friends:")
	for _, edge := range deps.Friends.Friends() {
		fmt.Printf("  %s  @%s\n", edge.ID, edge.Username)
	}
	fmt.Println("received requests:")
	for _, edge := range deps.Friends.PendingRequests() {
		fmt.Printf("  %s  @%s\n", edge.ID, edge.Username)
	}
	fmt.Println("sent requests:")
	for _, edge := range deps.Friends.SentRequests() {
		fmt.Printf("  %s  @%s\n", edge.ID, edge.Username)
	}
	return nil
}

func runFriendAction(ctx context.Context, deps Dependencies, args []string) error {
	if len(args) < 2 {
		return errors.New("expected: friend <request|accept|reject|cancel|remove> <id>")
	}

	action, id := args[0], args[1]
	var err error
	switch action {
	case "request":
		err = deps.Friends.SendRequest(ctx, id)
	case "accept":
		err = deps.Friends.Accept(ctx, id)
	case "reject":
		err = deps.Friends.Reject(ctx, id)
	case "cancel":
		err = deps.Friends.CancelRequest(ctx, id)
	case "remove":
		err = deps.Friends.RemoveFriend(ctx, id)
	default:
		return fmt.Errorf("unknown friend action %q", action)
	}
	if err != nil {
		return displayable(err)
	}
	fmt.Printf("friend %s ok\n", action)
	return nil
}

func runCheck(ctx context.Context, args []string, what string, check func(context.Context, string) (bool, error)) error {
	if len(args) == 0 {
		return fmt.Errorf("expected a %s to check", what)
	}
	available, err := check(ctx, args[0])
	if err != nil {
		return displayable(err)
	}
	if available {
		fmt.Printf("%s %q is available\n", what, args[0])
	} else {
		fmt.Printf("%s %q is taken\n", what, args[0])
	}
	return nil
}

func runPurchase(ctx context.Context, deps Dependencies, args []string) error {
	if len(args) == 0 {
		return errors.New("expected plan: annual or weekly")
	}
	if err := deps.Session.Purchase(ctx, args[0]); err != nil {
		return displayable(err)
	}
	fmt.Println("premium activated")
	return nil
}

func runWatch(ctx context.Context, cfg config.Config, deps Dependencies) error {
	refresher, err := cache.NewRefresher(cfg.RefreshSchedule, slog.Default(), func(ctx context.Context) {
		if deps.Session.State() != session.StateAuthenticated {
			return
		}
		if _, err := deps.Images.Fetch(ctx, api.ImageFilters{}); err != nil {
			logging.FromContext(ctx).Warn("image refresh failed", "error", err)
		}
		if err := deps.Friends.Fetch(ctx); err != nil {
			logging.FromContext(ctx).Warn("friend refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	refresher.Start()
	defer refresher.Stop()

	fmt.Printf("refreshing caches on schedule %q, ctrl-c to stop\n", cfg.RefreshSchedule)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-signalCh:
	}
	return nil
}

// displayable converts a classified failure into the message the user
// would see on screen, preserving the original for %w inspection.
func displayable(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s (%w)", apiErr.UserMessage(), err)
	}
	return err
}

func creditsLabel(user models.User) string {
	if user.Unlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d", user.Credits)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
