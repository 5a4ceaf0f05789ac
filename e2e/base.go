package e2e

import (
	"chat-guard/auth"
	"chat-guard/contract"
	"chat-guard/domain"
	"chat-guard/moderation"
	"chat-guard/repositories"
	"chat-guard/runtime"
	"chat-guard/runtime/workers"
	"chat-guard/services"
	"chat-guard/storage"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"go.uber.org/multierr"
)

// Client is one execution context over the shared store: its own hub,
// moderation engine and services, like a second open window of the app.
type Client struct {
	Hub      *runtime.Hub
	Messages *services.MessageService
	Auth     *services.AuthService
	Seen     *Recorder

	sup  *workers.Supervisor
	done chan struct{}
}

type BaseSuite struct {
	suite.Suite
	Config Config
	log    *slog.Logger

	feed    contract.KeyValueStore
	db      *badger.DB
	clients []*Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromLevel(slog.LevelWarn)
}

func (s *BaseSuite) SetupTest() {
	s.clients = nil
	if !s.Config.Badger {
		s.feed = storage.NewMemory()
		return
	}
	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.WARNING))
	s.Require().NoError(err)
	s.db = db
	s.feed = storage.NewBadger(db, s.log)
}

// TearDownTest stops every client before closing the store they share.
func (s *BaseSuite) TearDownTest() {
	var err error
	for _, c := range s.clients {
		c.sup.Stop()
		<-c.done
	}
	if s.db != nil {
		err = multierr.Append(err, s.db.Close())
		s.db = nil
	}
	s.Require().NoError(err)
}

// NewClient starts a client whose hub runs under a supervisor and whose
// console is replaced by a recording subscriber.
func (s *BaseSuite) NewClient(name string) *Client {
	messages := repositories.NewMessageRepository(s.feed, s.log)
	blocked := repositories.NewBlockedRepository(s.feed, s.log)

	moderator, err := moderation.NewModerator([]string{"idiot"}, '*', s.log)
	s.Require().NoError(err)
	engine := moderation.NewEngine(s.log, s.Config.SpamWindow, s.Config.SpamThreshold)
	messageService, err := services.NewMessageService(s.log, messages, blocked, engine, moderator, 0)
	s.Require().NoError(err)
	authService := services.NewAuthService(s.log, repositories.NewUserRepository(s.feed), auth.NewTokens("e2e-secret", time.Hour))
	s.Require().NoError(authService.SeedDirectory(context.Background(), services.DemoAccounts))

	hub := runtime.NewHub(s.log, s.feed, messages, blocked, runtime.NewRegistry(), time.Second)
	c := &Client{
		Hub:      hub,
		Messages: messageService,
		Auth:     authService,
		Seen:     &Recorder{name: name},
		sup:      workers.NewSupervisor(s.log, 50*time.Millisecond),
		done:     make(chan struct{}),
	}

	_, err = hub.Subscribe(context.Background(), c.Seen)
	s.Require().NoError(err)

	c.sup.Add(hub)
	go func() {
		defer close(c.done)
		c.sup.Run(context.Background())
	}()
	// The hub publishes once it follows the store
	s.Require().Eventually(func() bool { return c.Seen.Latest().Version >= 1 }, s.Config.Wait, 10*time.Millisecond)

	s.clients = append(s.clients, c)
	return c
}

// Login returns the identity of a demo account, going through the token round trip.
func (s *BaseSuite) Login(c *Client, username, password string) *domain.User {
	token, _, err := c.Auth.Login(context.Background(), username, password)
	s.Require().NoError(err)
	user, err := c.Auth.Authenticate(token)
	s.Require().NoError(err)
	return &user
}

// Step prints a colorized header then runs fn as a subtest.
func (s *BaseSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// AwaitSnapshot waits until the client rendered a snapshot satisfying cond.
func (s *BaseSuite) AwaitSnapshot(c *Client, cond func(domain.Snapshot) bool, msg string) domain.Snapshot {
	s.Require().Eventually(func() bool { return cond(c.Seen.Latest()) }, s.Config.Wait, 10*time.Millisecond, msg)
	return c.Seen.Latest()
}

// Recorder is a subscriber keeping every snapshot it receives.
type Recorder struct {
	name      string
	mu        sync.Mutex
	snapshots []domain.Snapshot
}

func (r *Recorder) Consume(_ context.Context, snapshot domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
	return nil
}

func (r *Recorder) Latest() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return domain.Snapshot{}
	}
	return r.snapshots[len(r.snapshots)-1]
}

func (r *Recorder) All() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Snapshot{}, r.snapshots...)
}
