// Command dropin is a CLI client for the drop-in availability calendar.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mschachner/drop-in/internal/api"
	"github.com/mschachner/drop-in/internal/convert"
	pkgcrypto "github.com/mschachner/drop-in/internal/crypto"
	"github.com/mschachner/drop-in/internal/recurrence"
)

// ---- session store ----

// sessionFile remembers who the user is between invocations.
type sessionFile struct {
	Addr       string    `json:"addr,omitempty"`
	CalendarID string    `json:"calendar_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Token      string    `json:"token,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	AdminToken string    `json:"admin_token,omitempty"`
	AdminUntil time.Time `json:"admin_until,omitempty"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "dropin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dropin")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(s sessionFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), append(b, '\n'), 0o600)
}

// loadSession returns the saved session; a missing file is an empty session.
func loadSession() (sessionFile, error) {
	var s sessionFile
	b, err := os.ReadFile(sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("%s: %w", sessionPath(), err)
	}
	return s, nil
}

// bearer returns the identity token while it is still valid.
func (s sessionFile) bearer(now time.Time) string {
	if s.Token == "" || now.After(s.ExpiresAt) {
		return ""
	}
	return s.Token
}

func (s sessionFile) adminBearer(now time.Time) string {
	if s.AdminToken == "" || now.After(s.AdminUntil) {
		return ""
	}
	return s.AdminToken
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintf(w, `dropin CLI
Usage:
  dropin [-addr URL] [-calendar ID] [-name NAME] <cmd> [args]

Commands:
  version
  use              -calendar <id> -name <name>        (saves defaults)
  identity                                            (saves an identity token for -name)
  admin            -p <password>                      (saves an admin token)
  week             [-start YYYY-MM-DD] [-days 7]
  add              -date <YYYY-MM-DD> -time <slot> -location <where> [-recurring] [-section day|evening]
  join             -id <uuid>
  unjoin           -id <uuid>
  toggle           -id <uuid>
  rm               -id <uuid>
  calendars
  calendar-create  -id <calendar> [-color #RRGGBB] [-dark]
  hash-password    -p <password>
`)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the configured server.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		cancel()
		fail(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	sess, err := loadSession()
	if err != nil {
		return err
	}

	// global flags
	gf := flag.NewFlagSet("dropin", flag.ContinueOnError)
	gf.SetOutput(io.Discard)
	addr := gf.String("addr", firstNonEmpty(sess.Addr, "http://localhost:8080"), "server URL")
	cal := gf.String("calendar", sess.CalendarID, "calendar id (default: Default)")
	name := gf.String("name", sess.Name, "your name")
	if err := gf.Parse(args); err != nil || gf.NArg() < 1 {
		usage(os.Stderr)
		return errUsage
	}
	cmd, rest := gf.Arg(0), gf.Args()[1:]
	now := time.Now()
	cli := newClient(*addr, sess.bearer(now))

	switch cmd {

	case "version":
		fmt.Fprintf(stdout, "dropin %s (%s)\n", version, buildDate)

	case "use":
		fs := flag.NewFlagSet("use", flag.ContinueOnError)
		c := fs.String("calendar", *cal, "calendar id")
		n := fs.String("name", *name, "your name")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *n != sess.Name {
			sess.Token, sess.ExpiresAt = "", time.Time{}
		}
		sess.Addr, sess.CalendarID, sess.Name = *addr, strings.TrimSpace(*c), strings.TrimSpace(*n)
		if err := saveSession(sess); err != nil {
			return err
		}
		printJSON(stdout, map[string]string{"calendarId": sess.CalendarID, "name": sess.Name})

	case "identity":
		if strings.TrimSpace(*name) == "" {
			return errors.New("need -name (or run `dropin use -name ...`)")
		}
		resp, err := cli.identity(ctx, *name)
		if err != nil {
			return err
		}
		sess.Name, sess.Token, sess.ExpiresAt = resp.Name, resp.Token, resp.ExpiresAt
		if err := saveSession(sess); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "identity saved for %s until %s\n", resp.Name, resp.ExpiresAt.Local().Format(time.RFC1123))

	case "admin":
		fs := flag.NewFlagSet("admin", flag.ContinueOnError)
		p := fs.String("p", "", "admin password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		resp, err := cli.verifyAdmin(ctx, *p)
		if err != nil {
			return err
		}
		sess.AdminToken, sess.AdminUntil = resp.Token, resp.ExpiresAt
		if err := saveSession(sess); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "ok")

	case "week":
		fs := flag.NewFlagSet("week", flag.ContinueOnError)
		start := fs.String("start", "", "first day (YYYY-MM-DD, default today)")
		days := fs.Int("days", recurrence.DefaultWindowDays, "window width in days")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		from, err := convert.ParseDate(*start, time.Local)
		if err != nil {
			return err
		}
		if from.IsZero() {
			from = now
		}
		list, err := cli.listAvailability(ctx, *cal)
		if err != nil {
			return err
		}
		events, err := convert.FromAPIAvailabilities(list)
		if err != nil {
			return err
		}
		// expand in the viewer's zone
		for i := range events {
			events[i].Date = events[i].Date.In(from.Location())
		}
		renderWeek(stdout, recurrence.Expand(events, from, *days), from, *days, *name)

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		date := fs.String("date", "", "day (YYYY-MM-DD or RFC 3339, default now)")
		slot := fs.String("time", "", "time slot, e.g. 2-4pm")
		loc := fs.String("location", "", "where")
		recurring := fs.Bool("recurring", false, "repeat weekly")
		section := fs.String("section", "day", "day | evening")
		color := fs.String("color", "", "#RRGGBB")
		icon := fs.String("icon", "", "icon name")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *slot == "" || *loc == "" || *name == "" {
			return errors.New("need -time, -location and a -name")
		}
		out, err := cli.createAvailability(ctx, api.CreateAvailabilityRequest{
			CalendarID: *cal,
			Date:       *date,
			TimeSlot:   *slot,
			Location:   *loc,
			Name:       *name,
			Color:      *color,
			Icon:       *icon,
			Recurring:  *recurring,
			Section:    *section,
		})
		if err != nil {
			return err
		}
		printJSON(stdout, out)

	case "join", "unjoin", "toggle":
		id, err := idFlag(cmd, rest)
		if err != nil {
			return err
		}
		if *name == "" {
			return errors.New("need -name")
		}
		out, err := cli.membership(ctx, cmd, *cal, id, *name)
		if err != nil {
			return err
		}
		printJSON(stdout, out)

	case "rm":
		id, err := idFlag(cmd, rest)
		if err != nil {
			return err
		}
		if err := cli.deleteAvailability(ctx, *cal, id); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "deleted")

	case "calendars":
		if t := sess.adminBearer(now); t != "" {
			cli.token = t
		}
		out, err := cli.listCalendars(ctx)
		if err != nil {
			return err
		}
		printJSON(stdout, out)

	case "calendar-create":
		fs := flag.NewFlagSet("calendar-create", flag.ContinueOnError)
		id := fs.String("id", "", "calendar id (letters and digits, max 20)")
		color := fs.String("color", "", "#RRGGBB")
		dark := fs.Bool("dark", false, "default to dark mode")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("need -id")
		}
		out, err := cli.createCalendar(ctx, api.CreateCalendarRequest{CalendarID: *id, DefaultColor: *color, DefaultDarkMode: *dark})
		if err != nil {
			return err
		}
		printJSON(stdout, out)

	case "hash-password":
		fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
		p := fs.String("p", "", "password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *p == "" {
			return errors.New("need -p")
		}
		h, err := pkgcrypto.HashPassword(*p)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, h)

	default:
		usage(os.Stderr)
		return errUsage
	}
	return nil
}

// ---- helpers ----

func idFlag(cmd string, args []string) (string, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	id := fs.String("id", "", "availability id")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *id == "" {
		return "", errors.New("need -id")
	}
	return *id, nil
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}

func fail(err error) {
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	var ae *apiError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "server error: status=%d msg=%s\n", ae.Status, ae.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
