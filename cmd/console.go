package main

import (
	"bufio"
	"chat-guard/domain"
	"chat-guard/domain/search"
	"chat-guard/observability"
	"chat-guard/services"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const timeLayout = "15:04:05"

// session is the logged in user of the console.
type session struct {
	token services.Token
	user  domain.User
}

// Console is a line oriented front end over the message service.
// It is also a hub subscriber: every snapshot it receives is rendered.
type Console struct {
	log      *slog.Logger
	messages services.IMessageService
	auth     services.IAuthService
	health   *observability.MonitoringManager
	colours  bool

	mu       sync.Mutex // guards out, session and rendered
	out      io.Writer
	session  *session
	rendered uint64
}

func NewConsole(
	log *slog.Logger,
	out io.Writer,
	messages services.IMessageService,
	auth services.IAuthService,
	health *observability.MonitoringManager,
	colours bool,
) *Console {
	return &Console{log: log, out: out, messages: messages, auth: auth, health: health, colours: colours}
}

// Consume renders a snapshot unless a newer one was already shown.
func (c *Console) Consume(_ context.Context, snapshot domain.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snapshot.Version < c.rendered {
		return nil
	}
	c.rendered = snapshot.Version
	c.renderSnapshot(snapshot)
	return nil
}

func (c *Console) Banner() {
	c.println(c.paint(color.FgCyan, "chat-guard console, /help lists the commands"))
}

// Serve executes one command per input line until /quit, EOF or ctx is done.
func (c *Console) Serve(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := c.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether the console must stop.
func (c *Console) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.send(ctx, line)
		return false
	}

	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		c.help()
	case "/login":
		if len(args) != 2 {
			c.usage("/login <username> <password>")
			return false
		}
		c.login(ctx, args[0], args[1])
	case "/logout":
		c.logout()
	case "/whoami":
		c.whoami()
	case "/send":
		c.send(ctx, rest)
	case "/edit":
		id, text, ok := strings.Cut(rest, " ")
		if !ok {
			c.usage("/edit <message id> <text>")
			return false
		}
		_, err := c.messages.Edit(ctx, c.user(), id, text)
		c.report("edit", err)
	case "/delete":
		if len(args) != 1 {
			c.usage("/delete <message id>")
			return false
		}
		c.report("delete", c.messages.DeleteOwn(ctx, c.user(), args[0]))
	case "/remove":
		if len(args) != 1 {
			c.usage("/remove <message id>")
			return false
		}
		c.report("remove", c.messages.DeleteAny(ctx, c.user(), args[0]))
	case "/purge":
		c.report("purge", c.messages.DeleteAll(ctx, c.user()))
	case "/block", "/unblock":
		if len(args) != 1 {
			c.usage(command + " <user id>")
			return false
		}
		c.report(strings.TrimPrefix(command, "/"), c.messages.SetBlocked(ctx, c.user(), args[0], command == "/block"))
	case "/stats":
		c.stats(ctx)
	case "/health":
		c.showHealth()
	case "/list":
		c.list(ctx, search.NewSearchQuery(line))
	default:
		c.println(c.paint(color.FgYellow, fmt.Sprintf("unknown command %s, try /help", command)))
	}
	return false
}

func (c *Console) send(ctx context.Context, text string) {
	_, err := c.messages.Send(ctx, c.user(), text)
	c.report("send", err)
}

func (c *Console) login(ctx context.Context, username, password string) {
	token, user, err := c.auth.Login(ctx, username, password)
	if err != nil {
		c.report("login", err)
		return
	}
	c.mu.Lock()
	c.session = &session{token: token, user: user}
	c.mu.Unlock()
	c.println(c.paint(color.FgGreen, fmt.Sprintf("welcome %s (%s, id %s)", user.Name, user.Role, user.ID)))
}

func (c *Console) logout() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.println("logged out")
}

func (c *Console) whoami() {
	user := c.user()
	if user == nil {
		c.println("not logged in")
		return
	}
	c.println(fmt.Sprintf("%s @%s, role %s, id %s", user.Name, user.Username, user.Role, user.ID))
}

// user returns the identity behind the session token, nil when there is
// none or when the token is no longer valid.
func (c *Console) user() *domain.User {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()
	if current == nil {
		return nil
	}
	user, err := c.auth.Authenticate(current.token)
	if err != nil {
		c.log.Debug("Session rejected", "error", err)
		return nil
	}
	return &user
}

func (c *Console) stats(ctx context.Context) {
	counts, err := c.messages.CountByUser(ctx)
	if err != nil {
		c.report("stats", err)
		return
	}
	blocked, err := c.messages.BlockedUsers(ctx)
	if err != nil {
		c.report("stats", err)
		return
	}
	spam := c.messages.SpamStats()

	userIDs := lo.Uniq(append(append(lo.Keys(counts), lo.Keys(spam)...), blocked...))
	sort.Strings(userIDs)

	c.mu.Lock()
	defer c.mu.Unlock()
	table := c.table([]string{"User", "Messages", "Recent", "Near limit", "Blocked"})
	for _, userID := range userIDs {
		stat := spam[userID]
		table.Append([]string{
			userID,
			fmt.Sprint(counts[userID]),
			fmt.Sprint(stat.RecentMessageCount),
			yesNo(stat.IsNearLimit),
			yesNo(lo.Contains(blocked, userID)),
		})
	}
	table.Render()
}

func (c *Console) showHealth() {
	latest, beats := c.health.GetLatest()
	if beats == 0 {
		c.println("no heartbeat yet")
		return
	}
	c.println(fmt.Sprintf("%s v%d, %d message(s), %d blocked, %d active, near limit %v, rss %d KiB, cpu %.1f%%, %s",
		latest.At.Local().Format(timeLayout), latest.Version, latest.Messages, latest.Blocked,
		latest.ActiveUsers, latest.NearLimit, latest.RSS/1024, latest.CPUPercent, latest.State))
}

func (c *Console) list(ctx context.Context, query search.Query) {
	messages, err := c.messages.Filter(ctx, query)
	if err != nil {
		c.report("list", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderMessages(messages)
	fmt.Fprintf(c.out, "%d message(s)\n", len(messages))
}

func (c *Console) report(action string, err error) {
	result := services.NewResult(err)
	if result.Success {
		c.println(c.paint(color.FgGreen, action+": ok"))
		return
	}
	c.println(c.paint(color.FgRed, fmt.Sprintf("%s: %s (%s)", action, result.Error, result.Kind)))
}

func (c *Console) usage(text string) {
	c.println(c.paint(color.FgYellow, "usage: "+text))
}

func (c *Console) help() {
	c.println(strings.Join([]string{
		"/login <username> <password>   open a session",
		"/logout                        close the session",
		"/whoami                        show the current user",
		"/send <text> or plain text     post a message",
		"/edit <id> <text>              edit one of your messages",
		"/delete <id>                   delete one of your messages",
		"/remove <id>                   delete any message (admin)",
		"/purge                         delete every message (admin)",
		"/block <user id>               block a user (admin)",
		"/unblock <user id>             unblock a user (admin)",
		"/stats                         messages and spam window per user",
		"/health                        last heartbeat of the process",
		"/list [--user name] [terms]    search messages",
		"/quit                          leave",
	}, "\n"))
}

// renderSnapshot must be called with mu held.
func (c *Console) renderSnapshot(snapshot domain.Snapshot) {
	header := fmt.Sprintf("  ====== v%d, %d message(s), blocked %v ======",
		snapshot.Version, len(snapshot.Messages), snapshot.Blocked)
	fmt.Fprintln(c.out, c.paintStyle(header, color.BgBlack, color.FgGreen))
	c.renderMessages(snapshot.Messages)
}

// renderMessages must be called with mu held.
func (c *Console) renderMessages(messages []domain.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(c.out, "(no messages)")
		return
	}
	table := c.table([]string{"ID", "Author", "At", "Text"})
	for _, m := range messages {
		author := fmt.Sprintf("%s (%s)", printable(m.Name), m.UserID)
		if m.Role == domain.RoleAdmin {
			author += " [admin]"
		}
		at := m.Timestamp.Local().Format(timeLayout)
		if m.Edited() {
			at += " edited"
		}
		table.Append([]string{m.ID, author, at, printable(m.Text)})
	}
	table.Render()
}

func (c *Console) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func (c *Console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

func (c *Console) paint(colour color.Color, text string) string {
	if !c.colours {
		return text
	}
	return colour.Render(text)
}

func (c *Console) paintStyle(text string, colours ...color.Color) string {
	if !c.colours {
		return text
	}
	return color.New(colours...).Render(text)
}

// printable is what a terminal may show of a stored text: colour codes are
// dropped and other control characters become spaces. Everything else is
// shown as typed.
func printable(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, color.ClearCode(text))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
