package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"phonelogin/internal/app"
	"phonelogin/internal/auth"
	"phonelogin/internal/config"
	"phonelogin/internal/models"
	"phonelogin/internal/navigation"
	"phonelogin/internal/utils"
)

func main() {
	cmd := flag.String("cmd", "login", "Command: login|status|dashboard|logout")
	phoneFlag := flag.String("phone", "", "Phone number for login (prompted when empty)")
	verbose := flag.Bool("v", false, "Log to stderr at debug level")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	log := zerolog.Nop()
	if *verbose || cfg.Log.File != "" {
		level := cfg.Log.Level
		if *verbose {
			level = "debug"
		}
		l, closeLog, err := utils.NewLogger(level, cfg.Log.Format, cfg.Log.File)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		defer closeLog()
		log = l
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer a.Close()

	c := &cli{app: a, in: bufio.NewReader(os.Stdin), out: os.Stdout}
	switch *cmd {
	case "login":
		err = c.login(ctx, *phoneFlag)
	case "status":
		err = c.status(ctx)
	case "dashboard":
		err = c.dashboard(ctx)
	case "logout":
		err = c.logout(ctx)
	default:
		err = fmt.Errorf("unknown command %q", *cmd)
	}
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

type cli struct {
	app  *app.App
	in   *bufio.Reader
	out  io.Writer
	view navigation.Destination
}

// Navigate records the view to render once the current step returns.
func (c *cli) Navigate(ctx context.Context, to navigation.Destination) error {
	c.view = to
	return nil
}

func (c *cli) login(ctx context.Context, phone string) error {
	guard := c.app.NewGuard(c)
	if guard.RedirectIfAuthenticated(ctx) {
		fmt.Fprintln(c.out, "Already signed in.")
		return c.render(ctx)
	}
	if phone == "" {
		var err error
		if phone, err = c.prompt("Phone number: "); err != nil {
			return err
		}
	}

	login := c.app.NewLogin(c)
	err := login.Submit(ctx, phone)
	for err != nil {
		if errors.Is(err, auth.ErrBusy) {
			return err
		}
		snap := login.Snapshot()
		c.printNotice(snap.Notice)

		choice, perr := c.choose(snap)
		if perr != nil {
			return perr
		}
		switch choice {
		case "r":
			err = login.Retry(ctx)
		case "x":
			if rerr := login.Reset(); rerr != nil {
				return rerr
			}
			if phone, perr = c.prompt("Phone number: "); perr != nil {
				return perr
			}
			err = login.Submit(ctx, phone)
		default:
			return errors.New("login abandoned")
		}
	}
	return c.render(ctx)
}

func (c *cli) choose(snap auth.Snapshot) (string, error) {
	var options []string
	if snap.CanRetry {
		options = append(options, "[r]etry")
	}
	if snap.CanReset {
		options = append(options, "[x] reset")
	}
	options = append(options, "[q]uit")
	answer, err := c.prompt(strings.Join(options, " / ") + ": ")
	if err != nil {
		return "", err
	}
	answer = strings.ToLower(answer)
	if (answer == "r" && !snap.CanRetry) || (answer == "x" && !snap.CanReset) {
		return "q", nil
	}
	return answer, nil
}

func (c *cli) printNotice(n *auth.Notice) {
	if n == nil {
		return
	}
	fmt.Fprintf(c.out, "%s: %s\n", n.Title, n.Message)
	fmt.Fprintln(c.out, n.Remedy)
	if n.Attempt != "" {
		fmt.Fprintf(c.out, "(%s)\n", n.Attempt)
	}
}

func (c *cli) render(ctx context.Context) error {
	if c.view == navigation.Protected {
		return c.dashboard(ctx)
	}
	fmt.Fprintln(c.out, "Signed out.")
	return nil
}

func (c *cli) dashboard(ctx context.Context) error {
	user, ok := c.app.NewGuard(c).RequireAuthenticated(ctx)
	if !ok {
		fmt.Fprintln(c.out, "Not signed in. Run with -cmd login.")
		return nil
	}
	printUser(c.out, user)
	return nil
}

func (c *cli) status(ctx context.Context) error {
	data, err := json.MarshalIndent(c.app.Store.State(ctx), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, string(data))
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	if err := c.app.NewGuard(c).Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out.")
	return nil
}

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printUser(w io.Writer, u *models.UserRecord) {
	fmt.Fprintf(w, "Welcome, %s\n", u.FullName())
	fmt.Fprintf(w, "Email:  %s\n", u.Email)
	fmt.Fprintf(w, "Avatar: %s\n", u.Avatar.Large)
}
