// Command resumectl drives the resume API from a terminal using the same
// editor pipeline as the web client: edits go through the store and autosave,
// chat goes through the optimistic reconciler.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/oauth2"

	"resume-studio/internal/editor/autosave"
	"resume-studio/internal/editor/chat"
	"resume-studio/internal/editor/gateway"
	"resume-studio/internal/editor/store"
	"resume-studio/internal/resume"
)

type options struct {
	api      string
	token    string
	guest    string
	owner    string
	resumeID string
	timeout  time.Duration
}

func main() {
	opts, args, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	if err := run(ctx, opts, newGateway(opts), args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseFlags(argv []string) (options, []string, error) {
	var opts options
	fs := flag.NewFlagSet("resumectl", flag.ContinueOnError)
	fs.StringVar(&opts.api, "api", envOr("RESUME_API", "http://localhost:8080/api/v1"), "API base URL")
	fs.StringVar(&opts.token, "token", os.Getenv("RESUME_TOKEN"), "bearer token")
	fs.StringVar(&opts.guest, "guest", "", "guest identity used when no token is given")
	fs.StringVar(&opts.owner, "owner", "", "owner id of the session (defaults to the guest id)")
	fs.StringVarP(&opts.resumeID, "resume", "r", "", "resume id")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall command timeout")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: resumectl [flags] new [title] | show | set <section> <json> | history | chat <message> | upload <file.pdf>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return opts, nil, err
	}
	if opts.token == "" && opts.guest == "" {
		return opts, nil, errors.New("either --token or --guest is required")
	}
	if opts.owner == "" {
		opts.owner = opts.guest
	}
	if opts.owner == "" {
		// The server derives identity from the token; the editor only needs
		// a non-empty owner to treat the session as signed in.
		opts.owner = "me"
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return opts, nil, errors.New("missing command")
	}
	return opts, fs.Args(), nil
}

func newGateway(opts options) gateway.Gateway {
	var tokens oauth2.TokenSource
	if opts.token != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.token, TokenType: "Bearer"})
	}
	return gateway.NewHTTPClient(opts.api, tokens, opts.guest)
}

func run(ctx context.Context, opts options, gw gateway.Gateway, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	if cmd != "new" && opts.resumeID == "" {
		return errors.New("--resume is required")
	}

	switch cmd {
	case "new":
		title := strings.Join(rest, " ")
		doc, err := gw.CreateDocument(ctx, opts.owner, title)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, doc.ID)
		return nil
	case "show":
		doc, err := gw.LoadDocument(ctx, opts.owner, opts.resumeID)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{
			"id":         doc.ID,
			"title":      doc.Title,
			"content":    doc.Content,
			"attachment": doc.Attachment,
			"updatedAt":  doc.UpdatedAt,
		})
	case "set":
		if len(rest) != 2 {
			return errors.New("usage: set <section> <json>")
		}
		return setSection(ctx, opts, gw, store.Section(rest[0]), rest[1], out)
	case "history":
		turns, err := gw.ListChatTurns(ctx, opts.owner, opts.resumeID, chat.HistoryLimit)
		if err != nil {
			return err
		}
		for _, t := range turns {
			printTurn(out, t.Role, t.Content)
		}
		return nil
	case "chat":
		text := strings.Join(rest, " ")
		return sendChat(ctx, opts, gw, text, out)
	case "upload":
		if len(rest) != 1 {
			return errors.New("usage: upload <file.pdf>")
		}
		return upload(ctx, opts, gw, rest[0], out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// setSection replaces one section and waits for autosave to persist it.
func setSection(ctx context.Context, opts options, gw gateway.Gateway, section store.Section, raw string, out io.Writer) error {
	value, err := decodeSection(section, raw)
	if err != nil {
		return err
	}
	doc, err := gw.LoadDocument(ctx, opts.owner, opts.resumeID)
	if err != nil {
		return err
	}

	st := store.New()
	defer st.Close()
	st.ReplaceDocument(doc)

	var (
		saveErr error
		savedAt time.Time
	)
	sched := autosave.New(st, gw, autosave.Options{
		Debounce: 10 * time.Millisecond,
		OnError:  func(err error) { saveErr = err },
		OnSaved:  func(at time.Time) { savedAt = at },
	})
	defer sched.Close()

	if err := st.UpdateSection(section, store.Set(value)); err != nil {
		return err
	}
	sched.Flush()
	if err := sched.WaitIdle(ctx); err != nil {
		return err
	}
	if saveErr != nil {
		return saveErr
	}
	if !savedAt.IsZero() {
		fmt.Fprintf(out, "saved %s at %s\n", section, savedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintf(out, "%s unchanged\n", section)
	}
	return nil
}

func decodeSection(section store.Section, raw string) (any, error) {
	var (
		value any
		err   error
	)
	switch section {
	case store.SectionBasics:
		var v resume.Basics
		err = json.Unmarshal([]byte(raw), &v)
		value = v
	case store.SectionExperience:
		var v []resume.ExperienceItem
		err = json.Unmarshal([]byte(raw), &v)
		value = v
	case store.SectionEducation:
		var v []resume.EducationItem
		err = json.Unmarshal([]byte(raw), &v)
		value = v
	case store.SectionSkills:
		var v []string
		err = json.Unmarshal([]byte(raw), &v)
		value = v
	case store.SectionProjects:
		var v []resume.ProjectItem
		err = json.Unmarshal([]byte(raw), &v)
		value = v
	case store.SectionStatus:
		var v string
		if err = json.Unmarshal([]byte(raw), &v); err != nil {
			v, err = raw, nil
		}
		value = v
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownSection, section)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", section, err)
	}
	return value, nil
}

func sendChat(ctx context.Context, opts options, gw gateway.Gateway, text string, out io.Writer) error {
	rec := chat.New(gw, opts.owner, opts.resumeID)
	defer rec.Close()

	if err := rec.LoadHistory(ctx); err != nil {
		return err
	}
	if err := rec.Send(ctx, text); err != nil {
		return err
	}
	turns := rec.Turns()
	if len(turns) > 0 {
		last := turns[len(turns)-1]
		printTurn(out, last.Role, last.Content)
	}
	return nil
}

func upload(ctx context.Context, opts options, gw gateway.Gateway, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	att, err := gw.UploadAttachment(ctx, opts.owner, opts.resumeID, gateway.File{
		Name:        filepath.Base(path),
		ContentType: "application/pdf",
		Body:        f,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "uploaded %s (%d bytes, %d chars parsed)\n", att.FileName, att.FileSize, len([]rune(att.ParsedText)))
	return nil
}

func printTurn(out io.Writer, role, content string) {
	fmt.Fprintf(out, "[%s] %s\n", role, content)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
