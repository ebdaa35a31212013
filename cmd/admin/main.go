// Command admin is the data-grid CLI for blog staff: list and filter posts,
// comments and tags, manage the staff flag and issue admin API tokens.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"sensive/internal/config"
	"sensive/internal/database"
	"sensive/internal/middleware"
	"sensive/internal/repository"
	"sensive/internal/service"

	"gorm.io/gorm"
)

const usageText = `Usage:
  admin posts    [-q text] [-author username] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-limit n] [-offset n]
  admin year     <YYYY>
  admin comments [-q text] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-limit n] [-offset n]
  admin tags     [-q text] [-limit n] [-offset n]
  admin users    [-staff]
  admin promote  <username>
  admin demote   <username>
  admin token    <username> [-ttl 24h]`

var errUsage = errors.New(usageText)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), newCLI(db, cfg.JWTSecret, os.Stdout), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type cli struct {
	admin     *service.AdminService
	users     repository.UserRepository
	jwtSecret string
	out       io.Writer
}

func newCLI(db *gorm.DB, jwtSecret string, out io.Writer) *cli {
	users := repository.NewUserRepository(db)
	return &cli{
		admin: service.NewAdminService(
			repository.NewPostRepository(db),
			repository.NewTagRepository(db),
			repository.NewCommentRepository(db),
			users,
		),
		users:     users,
		jwtSecret: jwtSecret,
		out:       out,
	}
}

func run(ctx context.Context, c *cli, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "posts":
		return c.posts(ctx, rest)
	case "year":
		return c.year(ctx, rest)
	case "comments":
		return c.comments(ctx, rest)
	case "tags":
		return c.tags(ctx, rest)
	case "users":
		return c.listUsers(ctx, rest)
	case "promote", "demote":
		return c.setStaff(ctx, rest, cmd == "promote")
	case "token":
		return c.token(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q\n%w", cmd, errUsage)
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (c *cli) table(header string, rows func(w io.Writer)) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	return w.Flush()
}

func (c *cli) posts(ctx context.Context, args []string) error {
	fs := newFlagSet("posts", c.out)
	var q service.AdminPostQuery
	fs.StringVar(&q.Q, "q", "", "search title and text")
	fs.StringVar(&q.Author, "author", "", "author username")
	fs.StringVar(&q.From, "from", "", "published on or after")
	fs.StringVar(&q.To, "to", "", "published on or before")
	fs.IntVar(&q.Limit, "limit", 50, "page size")
	fs.IntVar(&q.Offset, "offset", 0, "rows to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	listing, err := c.admin.Posts(ctx, q)
	if err != nil {
		return err
	}
	return c.printPosts(listing)
}

func (c *cli) year(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid year %q", args[0])
	}
	listing, err := c.admin.PostsOfYear(ctx, year)
	if err != nil {
		return err
	}
	return c.printPosts(listing)
}

func (c *cli) printPosts(listing *service.Listing[service.PostRow]) error {
	err := c.table("ID\tTITLE\tSLUG\tAUTHOR\tIMAGE\tPUBLISHED", func(w io.Writer) {
		for _, p := range listing.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Title, p.Slug, p.Author, p.Image, p.PublishedAt.Format(time.RFC3339))
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d of %d posts\n", len(listing.Items), listing.Total)
	return nil
}

func (c *cli) comments(ctx context.Context, args []string) error {
	fs := newFlagSet("comments", c.out)
	var q service.AdminCommentQuery
	fs.StringVar(&q.Q, "q", "", "search text")
	fs.StringVar(&q.From, "from", "", "published on or after")
	fs.StringVar(&q.To, "to", "", "published on or before")
	fs.IntVar(&q.Limit, "limit", 50, "page size")
	fs.IntVar(&q.Offset, "offset", 0, "rows to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	listing, err := c.admin.Comments(ctx, q)
	if err != nil {
		return err
	}
	err = c.table("ID\tPOST\tPUBLISHED\tTEXT", func(w io.Writer) {
		for _, cm := range listing.Items {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", cm.ID, cm.PostID, cm.PublishedAt.Format(time.RFC3339), oneLine(cm.Text, 60))
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d of %d comments\n", len(listing.Items), listing.Total)
	return nil
}

func (c *cli) tags(ctx context.Context, args []string) error {
	fs := newFlagSet("tags", c.out)
	q := fs.String("q", "", "search title")
	limit := fs.Int("limit", 50, "page size")
	offset := fs.Int("offset", 0, "rows to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	listing, err := c.admin.Tags(ctx, *q, *limit, *offset)
	if err != nil {
		return err
	}
	err = c.table("ID\tTITLE\tPOSTS", func(w io.Writer) {
		for _, t := range listing.Items {
			fmt.Fprintf(w, "%d\t%s\t%d\n", t.ID, t.Title, t.PostsCount)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d of %d tags\n", len(listing.Items), listing.Total)
	return nil
}

func (c *cli) listUsers(ctx context.Context, args []string) error {
	fs := newFlagSet("users", c.out)
	staffOnly := fs.Bool("staff", false, "only staff users")
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := c.users.List(ctx, *staffOnly)
	if err != nil {
		return err
	}
	return c.table("ID\tUSERNAME\tEMAIL\tSTAFF", func(w io.Writer) {
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.IsStaff)
		}
	})
}

func (c *cli) setStaff(ctx context.Context, args []string, staff bool) error {
	if len(args) != 1 {
		return errUsage
	}
	user, err := c.users.SetStaff(ctx, args[0], staff)
	if err != nil {
		return err
	}
	verb := "demoted"
	if staff {
		verb = "promoted"
	}
	fmt.Fprintf(c.out, "%s %s (ID: %d)\n", verb, user.Username, user.ID)
	return nil
}

func (c *cli) token(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	fs := newFlagSet("token", c.out)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	user, err := c.users.GetByUsername(ctx, args[0])
	if err != nil {
		return err
	}
	if !user.IsStaff {
		return fmt.Errorf("user %s is not staff; run: admin promote %s", user.Username, user.Username)
	}
	tok, err := middleware.IssueStaffToken(c.jwtSecret, user.ID, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, tok)
	return nil
}

// oneLine flattens s and cuts it to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
